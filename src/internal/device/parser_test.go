package device

import "testing"

const (
	chromeDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iphoneUA        = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ipadUA          = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
)

func TestNormalizeResolution(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"spaces around x", "1920 x 1080", "1920x1080"},
		{"uppercase X", "1920X1080", "1920x1080"},
		{"already normalized", "1920x1080", "1920x1080"},
		{"embedded in text", "res: 2560 X 1440 (native)", "2560x1440"},
		{"garbage unchanged", "garbage", "garbage"},
		{"empty yields unknown", "", "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeResolution(tc.input); got != tc.expected {
				t.Errorf("NormalizeResolution(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestLocationFromIP(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		country string
		city    string
	}{
		{"private 192.168", "192.168.1.5", "Local Network", "Local Network"},
		{"private 10", "10.0.0.7", "Local Network", "Local Network"},
		{"private 172", "172.16.3.2", "Local Network", "Local Network"},
		{"google dns", "8.8.8.8", "United States", "Mountain View"},
		{"114 dns", "114.114.114.114", "China", "Nanjing"},
		{"unknown public", "1.2.3.4", "Unknown", "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			country, city := LocationFromIP(tc.ip)
			if country != tc.country || city != tc.city {
				t.Errorf("LocationFromIP(%q) = (%q, %q), want (%q, %q)",
					tc.ip, country, city, tc.country, tc.city)
			}
		})
	}
}

func TestParseUserAgent(t *testing.T) {
	t.Run("desktop chrome", func(t *testing.T) {
		browser, os, deviceType := ParseUserAgent(chromeDesktopUA)
		if deviceType != "desktop" {
			t.Errorf("device type = %q, want desktop", deviceType)
		}
		if browser == "Unknown" || os == "Unknown" {
			t.Errorf("expected parsed browser and os, got %q / %q", browser, os)
		}
	})

	t.Run("iphone is mobile", func(t *testing.T) {
		_, _, deviceType := ParseUserAgent(iphoneUA)
		if deviceType != "mobile" {
			t.Errorf("device type = %q, want mobile", deviceType)
		}
	})

	t.Run("ipad is tablet", func(t *testing.T) {
		_, _, deviceType := ParseUserAgent(ipadUA)
		if deviceType != "tablet" {
			t.Errorf("device type = %q, want tablet", deviceType)
		}
	})

	t.Run("garbage yields unknown for all fields", func(t *testing.T) {
		browser, os, deviceType := ParseUserAgent("definitely not a user agent")
		if browser != "Unknown" || os != "Unknown" || deviceType != "Unknown" {
			t.Errorf("got (%q, %q, %q), want all Unknown", browser, os, deviceType)
		}
	})
}

func TestExtract(t *testing.T) {
	t.Run("full input", func(t *testing.T) {
		meta := Extract(Input{
			IPAddress:        "8.8.8.8",
			UserAgent:        chromeDesktopUA,
			ScreenResolution: "1920 x 1080",
			Language:         "zh-CN",
			Timezone:         "Asia/Shanghai",
		})

		if meta.DeviceType == nil || *meta.DeviceType != "desktop" {
			t.Errorf("device type = %v, want desktop", meta.DeviceType)
		}
		if meta.ScreenResolution == nil || *meta.ScreenResolution != "1920x1080" {
			t.Errorf("resolution = %v, want 1920x1080", meta.ScreenResolution)
		}
		if meta.Language == nil || *meta.Language != "zh-CN" {
			t.Errorf("language = %v, want zh-CN", meta.Language)
		}
		if meta.Timezone == nil || *meta.Timezone != "Asia/Shanghai" {
			t.Errorf("timezone = %v, want Asia/Shanghai", meta.Timezone)
		}
		if meta.Country == nil || *meta.Country != "United States" {
			t.Errorf("country = %v, want United States", meta.Country)
		}
		if meta.City == nil || *meta.City != "Mountain View" {
			t.Errorf("city = %v, want Mountain View", meta.City)
		}
	})

	t.Run("absent fields stay nil", func(t *testing.T) {
		meta := Extract(Input{Language: "en-US"})

		if meta.Browser != nil || meta.OS != nil || meta.DeviceType != nil {
			t.Error("expected nil user-agent fields for empty user agent")
		}
		if meta.ScreenResolution != nil {
			t.Error("expected nil resolution for empty input")
		}
		if meta.Country != nil || meta.City != nil {
			t.Error("expected nil location for empty ip")
		}
		if meta.Language == nil || *meta.Language != "en-US" {
			t.Errorf("language = %v, want en-US", meta.Language)
		}
	})

	t.Run("empty input yields all nil", func(t *testing.T) {
		meta := Extract(Input{})
		if meta != (Metadata{}) {
			t.Errorf("expected zero metadata, got %+v", meta)
		}
	})
}
