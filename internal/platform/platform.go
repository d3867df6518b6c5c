// Package platform classifies media URLs by the host they point at.
// Classification is pure: no DNS, no redirects, no I/O.
package platform

import (
	"net/url"
	"strings"

	"snag/internal/media"
)

// signature binds a platform to the host suffixes it owns.
// Suffix sets are disjoint, so at most one signature matches any host.
type signature struct {
	platform media.Platform
	label    string
	hosts    []string
}

// signatures is evaluated in order; the first match wins.
var signatures = []signature{
	{media.YouTube, "YouTube", []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}},
	{media.Instagram, "Instagram", []string{"instagram.com", "instagr.am"}},
	{media.Facebook, "Facebook", []string{"facebook.com", "fb.watch", "fb.com"}},
	{media.Twitter, "X (Twitter)", []string{"twitter.com", "x.com", "t.co", "fxtwitter.com", "vxtwitter.com", "fixupx.com"}},
	{media.TikTok, "TikTok", []string{"tiktok.com"}},
	{media.Vimeo, "Vimeo", []string{"vimeo.com"}},
}

// labels names well-known hosts that fall outside the fixed enumeration.
var labels = map[string]string{
	"reddit.com":      "Reddit",
	"redd.it":         "Reddit",
	"dailymotion.com": "Dailymotion",
	"dai.ly":          "Dailymotion",
	"twitch.tv":       "Twitch",
	"soundcloud.com":  "SoundCloud",
	"pinterest.com":   "Pinterest",
	"pin.it":          "Pinterest",
	"tumblr.com":      "Tumblr",
	"bilibili.com":    "Bilibili",
	"streamable.com":  "Streamable",
	"linkedin.com":    "LinkedIn",
	"threads.net":     "Threads",
	"snapchat.com":    "Snapchat",
	"bsky.app":        "Bluesky",
	"imgur.com":       "Imgur",
}

// Classify returns the platform label for rawURL. It never fails:
// malformed input is Unknown, well-formed but unrecognised input is Other.
func Classify(rawURL string) media.Platform {
	host, ok := hostOf(rawURL)
	if !ok {
		return media.Unknown
	}
	for _, sig := range signatures {
		if matchHost(host, sig.hosts) {
			return sig.platform
		}
	}
	return media.Other
}

// Label returns a human-readable source name, broader than the enumeration.
// For unrecognised hosts it falls back to the bare host name.
func Label(rawURL string) string {
	host, ok := hostOf(rawURL)
	if !ok {
		return ""
	}
	for _, sig := range signatures {
		if matchHost(host, sig.hosts) {
			return sig.label
		}
	}
	for suffix, label := range labels {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return label
		}
	}
	return host
}

func hostOf(rawURL string) (string, bool) {
	s := strings.TrimSpace(rawURL)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return strings.TrimPrefix(host, "www."), true
}

func matchHost(host string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
