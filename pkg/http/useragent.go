package http

import (
	"strings"

	"github.com/mssola/useragent"
	"golang.org/x/text/language"
)

// ClientInfo is a coarse classification of the requesting client
type ClientInfo struct {
	DeviceType string
	Browser    string
	Platform   string
}

const unknownValue = "unknown"

// Browser families recorded in access logs; anything else is unknown.
var knownBrowsers = map[string]string{
	"Chrome":            "Chrome",
	"Chromium":          "Chrome",
	"Edge":              "Edge",
	"Firefox":           "Firefox",
	"Opera":             "Opera",
	"Safari":            "Safari",
	"Internet Explorer": "Internet Explorer",
}

// ParseUserAgent reduces a User-Agent header to a device type, browser family
// and platform.
func ParseUserAgent(header string) ClientInfo {
	if strings.TrimSpace(header) == "" {
		return ClientInfo{DeviceType: unknownValue, Browser: unknownValue, Platform: unknownValue}
	}

	ua := useragent.New(header)
	system := ua.Platform() + " " + ua.OS()

	name, _ := ua.Browser()
	browser, ok := knownBrowsers[name]
	if !ok {
		browser = unknownValue
	}

	return ClientInfo{
		DeviceType: deviceType(ua, system),
		Browser:    browser,
		Platform:   platform(system),
	}
}

func deviceType(ua *useragent.UserAgent, system string) string {
	switch {
	case strings.Contains(system, "iPad"), strings.Contains(system, "Android") && !ua.Mobile():
		return "tablet"
	case ua.Mobile():
		return "mobile"
	}
	return "desktop"
}

func platform(system string) string {
	switch {
	case strings.Contains(system, "Windows"):
		return "Windows"
	case strings.Contains(system, "iPhone"), strings.Contains(system, "iPad"), strings.Contains(system, "iPod"):
		return "iOS"
	case strings.Contains(system, "Android"):
		return "Android"
	case strings.Contains(system, "Mac OS X"), strings.Contains(system, "Macintosh"):
		return "macOS"
	case strings.Contains(system, "Linux"):
		return "Linux"
	}
	return unknownValue
}

// PreferredLocale returns the highest-weighted tag of an Accept-Language
// header, or "unknown" when the header is missing or malformed.
func PreferredLocale(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return unknownValue
	}
	return tags[0].String()
}
