package device

import (
	"regexp"
	"strings"

	"github.com/mileusna/useragent"
)

const unknown = "Unknown"

// Input carries the raw client-supplied fields a metadata snapshot is
// derived from. Empty strings mean the client omitted the field.
type Input struct {
	IPAddress        string
	UserAgent        string
	ScreenResolution string
	Language         string
	Timezone         string
}

// Metadata is the derived snapshot. Nil fields were absent from the input
// and stay null on the stored record.
type Metadata struct {
	DeviceType       *string
	Browser          *string
	OS               *string
	ScreenResolution *string
	Language         *string
	Timezone         *string
	Country          *string
	City             *string
}

var resolutionPattern = regexp.MustCompile(`(\d+)\s*[xX]\s*(\d+)`)

// ParseUserAgent decomposes a raw user-agent string into browser, os and
// device type. It never fails: anything unparseable comes back as the
// literal "Unknown".
func ParseUserAgent(userAgent string) (browser, os, deviceType string) {
	ua := useragent.Parse(userAgent)
	if ua.Name == "" {
		return unknown, unknown, unknown
	}

	browser = strings.TrimSpace(ua.Name + " " + ua.Version)
	os = strings.TrimSpace(ua.OS + " " + ua.OSVersion)
	if os == "" {
		os = unknown
	}

	switch {
	case ua.Mobile:
		deviceType = "mobile"
	case ua.Tablet:
		deviceType = "tablet"
	case ua.Desktop:
		deviceType = "desktop"
	default:
		deviceType = "unknown"
	}

	return browser, os, deviceType
}

// NormalizeResolution re-emits the first "W x H" integer pair as "WxH".
// Input without such a pair is returned unchanged; empty input yields
// "Unknown".
func NormalizeResolution(resolution string) string {
	if resolution == "" {
		return unknown
	}

	match := resolutionPattern.FindStringSubmatch(resolution)
	if match != nil {
		return match[1] + "x" + match[2]
	}

	return resolution
}

// LocationFromIP maps an IP address to a coarse country/city pair by
// literal prefix. This is a placeholder table, not a geo-IP database.
func LocationFromIP(ipAddress string) (country, city string) {
	if strings.HasPrefix(ipAddress, "192.168.") ||
		strings.HasPrefix(ipAddress, "10.") ||
		strings.HasPrefix(ipAddress, "172.") {
		return "Local Network", "Local Network"
	}

	// Google DNS (8.8.8.8)
	if strings.HasPrefix(ipAddress, "8.8.") {
		return "United States", "Mountain View"
	}
	// 114 DNS (114.114.114.114)
	if strings.HasPrefix(ipAddress, "114.114.") {
		return "China", "Nanjing"
	}

	return unknown, unknown
}

// Extract derives the full metadata snapshot from the raw request fields.
// Pure and best-effort: no I/O, no error path.
func Extract(in Input) Metadata {
	var meta Metadata

	if in.UserAgent != "" {
		browser, os, deviceType := ParseUserAgent(in.UserAgent)
		meta.Browser = &browser
		meta.OS = &os
		meta.DeviceType = &deviceType
	}

	if in.ScreenResolution != "" {
		resolution := NormalizeResolution(in.ScreenResolution)
		meta.ScreenResolution = &resolution
	}

	if in.Language != "" {
		language := in.Language
		meta.Language = &language
	}

	if in.Timezone != "" {
		timezone := in.Timezone
		meta.Timezone = &timezone
	}

	if in.IPAddress != "" {
		country, city := LocationFromIP(in.IPAddress)
		meta.Country = &country
		meta.City = &city
	}

	return meta
}
