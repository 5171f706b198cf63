package engine

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// configToProto maps human-readable config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// adDomains is a set of ad and analytics domains blocked when BlockAds is
// enabled.
var adDomains = map[string]struct{}{
	"doubleclick.net":          {},
	"googlesyndication.com":    {},
	"googleadservices.com":     {},
	"google-analytics.com":     {},
	"googletagmanager.com":     {},
	"googletagservices.com":    {},
	"dap.digitalgov.gov":       {},
	"facebook.net":             {},
	"hotjar.com":               {},
	"mixpanel.com":             {},
	"segment.io":               {},
	"segment.com":              {},
	"scorecardresearch.com":    {},
	"siteimproveanalytics.com": {},
	"siteimproveanalytics.io":  {},
	"newrelic.com":             {},
	"nr-data.net":              {},
	"clarity.ms":               {},
	"static.ads-twitter.com":   {},
	"analytics.twitter.com":    {},
}

// isAdDomain checks if a hostname (or any parent domain) is in the blocklist.
func isAdDomain(host string) bool {
	host = strings.ToLower(host)
	if _, ok := adDomains[host]; ok {
		return true
	}
	// "ssl.google-analytics.com" -> "google-analytics.com"
	for {
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			break
		}
		host = host[idx+1:]
		if _, ok := adDomains[host]; ok {
			return true
		}
	}
	return false
}

// blockedTypes builds the O(1) lookup set for the configured resource types.
// Unknown names are ignored.
func blockedTypes(names []string) map[proto.NetworkResourceType]struct{} {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	return blocked
}

// setupHijack installs a request interceptor on the page that blocks the
// given resource types and, optionally, requests to known ad domains.
//
// Returns the running HijackRouter so Close can stop it.
// Returns nil if there is nothing to block.
func setupHijack(page *rod.Page, names []string, blockAds bool) *rod.HijackRouter {
	blocked := blockedTypes(names)
	if len(blocked) == 0 && !blockAds {
		return nil
	}

	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to block or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, shouldBlock := blocked[ctx.Request.Type()]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		if blockAds {
			if u, err := url.Parse(ctx.Request.URL().String()); err == nil && isAdDomain(u.Hostname()) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}

		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks until router.Stop().
	go router.Run()

	return router
}
