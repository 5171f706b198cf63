package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults shared by the flag set and viper.
const (
	DefaultHost        = "localhost"
	DefaultPort        = 4444
	DefaultEngine      = "rod"
	DefaultBaseURL     = "https://marketplace.fedramp.gov/products/"
	DefaultSectionWait = 20 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DefaultBlockedResources lists the resource types the rod engine blocks.
var DefaultBlockedResources = []string{"Image", "Font", "Media"}

// Config holds all application configuration.
type Config struct {
	Files   FilesConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	Log     LogConfig
	Webhook WebhookConfig
}

// FilesConfig names the input list and the output table.
type FilesConfig struct {
	// Input is the newline-delimited identifier list. Required.
	Input string

	// Output is the table written by the run (created/truncated). Required.
	Output string

	// Format is "csv" or "xlsx". Empty means inferred from Output.
	Format string
}

// BrowserConfig controls the session the run drives.
type BrowserConfig struct {
	// Engine selects the session implementation: "rod", "chromedp" or "http".
	Engine string // default: "rod"

	// Host and Port locate the already running browser-automation endpoint.
	Host string // default: "localhost"
	Port int    // default: 4444

	// Stealth injects anti-bot-detection evasions before every navigation.
	Stealth bool

	// BlockedResourceTypes lists resource types to block (rod engine).
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds blocks requests to known ad and analytics domains (rod engine).
	BlockAds bool // default: true

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// NavigationTimeout bounds a single navigate or reload. Zero leaves the
	// browser's own behaviour in place.
	NavigationTimeout time.Duration

	// SectionWait is how long to wait for the content container to appear.
	SectionWait time.Duration // default: 20s
}

// Endpoint returns the host:port of the automation endpoint.
func (b BrowserConfig) Endpoint() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// ScraperConfig controls URL construction.
type ScraperConfig struct {
	// BaseURL is the prefix each identifier is appended to, unescaped.
	BaseURL string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// WebhookConfig controls the completion notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", DefaultPort, "Chrome DevTools (CDP) port of the running browser, not a WebDriver port")
	fs.StringP("input", "i", "", "Path to input file containing FedRAMP product IDs (one ID per line)")
	fs.StringP("output", "o", "", "Path where the output file will be saved")
	fs.String("host", DefaultHost, "Host of the browser automation endpoint")
	fs.String("engine", DefaultEngine, "Session engine: rod, chromedp or http")
	fs.String("format", "", "Output format: csv or xlsx (default: inferred from --output)")
	fs.String("base-url", DefaultBaseURL, "URL prefix each product ID is appended to")
	fs.Duration("section-wait", DefaultSectionWait, "Maximum wait for the Authorization Details section")
	fs.Duration("nav-timeout", 0, "Deadline for a single navigation or reload (0 = browser default)")
	fs.Bool("stealth", false, "Inject stealth evasions before navigation")
	fs.StringSlice("block-resources", DefaultBlockedResources, "Resource types to block (rod engine)")
	fs.Bool("block-ads", true, "Block known ad and analytics domains (rod engine)")
	fs.StringToString("header", nil, "Extra HTTP header sent with every request (key=value, repeatable)")
	fs.String("webhook-url", "", "POST the run summary to this URL on completion")
	fs.String("webhook-secret", "", "HMAC-SHA256 secret used to sign webhook payloads")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warn, error")
	fs.String("log-format", DefaultLogFormat, "Log format: text or json")
	fs.String("config", "", "Optional YAML config file")
}

// Load merges flags, FEDSCRAPE_* environment variables, an optional config
// file and defaults, in that order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FEDSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("host", DefaultHost)
	v.SetDefault("engine", DefaultEngine)
	v.SetDefault("base-url", DefaultBaseURL)
	v.SetDefault("section-wait", DefaultSectionWait)
	v.SetDefault("nav-timeout", time.Duration(0))
	v.SetDefault("block-resources", DefaultBlockedResources)
	v.SetDefault("block-ads", true)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("log-format", DefaultLogFormat)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		Files: FilesConfig{
			Input:  v.GetString("input"),
			Output: v.GetString("output"),
			Format: strings.ToLower(strings.TrimSpace(v.GetString("format"))),
		},
		Browser: BrowserConfig{
			Engine:               strings.ToLower(strings.TrimSpace(v.GetString("engine"))),
			Host:                 v.GetString("host"),
			Port:                 v.GetInt("port"),
			Stealth:              v.GetBool("stealth"),
			BlockedResourceTypes: listOf(v.Get("block-resources")),
			BlockAds:             v.GetBool("block-ads"),
			Headers:              headersOf(v.Get("header")),
			NavigationTimeout:    v.GetDuration("nav-timeout"),
			SectionWait:          v.GetDuration("section-wait"),
		},
		Scraper: ScraperConfig{
			BaseURL: v.GetString("base-url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log-level"),
			Format: v.GetString("log-format"),
		},
		Webhook: WebhookConfig{
			URL:    v.GetString("webhook-url"),
			Secret: v.GetString("webhook-secret"),
		},
	}
	return cfg, nil
}

// Validate reports the first configuration problem, if any.
func (c *Config) Validate() error {
	if c.Files.Input == "" {
		return fmt.Errorf("--input is required")
	}
	if c.Files.Output == "" {
		return fmt.Errorf("--output is required")
	}
	switch c.Files.Format {
	case "", FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("unsupported --format %q (want csv or xlsx)", c.Files.Format)
	}
	switch c.Browser.Engine {
	case "rod", "chromedp", "http":
	default:
		return fmt.Errorf("unsupported --engine %q (want rod, chromedp or http)", c.Browser.Engine)
	}
	if c.Browser.Port < 1 || c.Browser.Port > 65535 {
		return fmt.Errorf("--port %d out of range", c.Browser.Port)
	}
	if c.Browser.SectionWait < 0 || c.Browser.NavigationTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// ResolvedFormat returns Format, or the format implied by the output
// file's extension when Format is empty.
func (f FilesConfig) ResolvedFormat() string {
	if f.Format != "" {
		return f.Format
	}
	if strings.EqualFold(filepath.Ext(f.Output), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// --- helper functions ---

// listOf accepts a string slice from flags/config files or a
// comma-separated string from the environment.
func listOf(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case nil:
		return nil
	case []string:
		parts = val
	case []any:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	case string:
		// pflag renders string slices as "[a,b]".
		parts = strings.Split(strings.Trim(val, "[]"), ",")
	default:
		return nil
	}
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// headersOf accepts a map from flags/config files or a "k=v,k2=v2" string
// from the environment.
func headersOf(raw any) map[string]string {
	headers := make(map[string]string)
	switch val := raw.(type) {
	case map[string]string:
		for k, v := range val {
			headers[k] = v
		}
	case map[string]any:
		for k, v := range val {
			headers[k] = fmt.Sprint(v)
		}
	case string:
		for _, pair := range strings.Split(strings.Trim(val, "[]"), ",") {
			k, v, ok := strings.Cut(pair, "=")
			if k = strings.TrimSpace(k); ok && k != "" {
				headers[k] = strings.TrimSpace(v)
			}
		}
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
