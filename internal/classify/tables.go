package classify

// Tables holds the raw classification lists before compilation. A YAML
// config file may replace any list; BuiltinTables returns the defaults.
type Tables struct {
	// TrackerDomains are registrable domains of known data-collection
	// endpoints. Matching is exact or by dot-suffix, so "doubleclick.net"
	// also matches "stats.g.doubleclick.net".
	TrackerDomains []string

	// PIIPatterns maps indicator names to regular expressions matched
	// case-insensitively against full request URLs.
	PIIPatterns map[string]string

	// BannerMarkers are substrings matched against element class and id
	// attributes to identify cookie-consent banners.
	BannerMarkers []string

	// OptOutPhrases are link/button texts that satisfy the opt-out-link
	// requirement on a page.
	OptOutPhrases []string

	// RejectPhrases are button texts the reject-action simulation clicks
	// in preference order.
	RejectPhrases []string
}

// BuiltinTables returns the default classification lists. The tracker
// list covers the major analytics, advertising, and session-replay
// endpoints; the PII patterns cover email-like strings, literal
// identifier parameter names, and hashed-identifier-length hex tokens.
func BuiltinTables() *Tables {
	return &Tables{
		TrackerDomains: []string{
			"google-analytics.com", "analytics.google.com",
			"googletagmanager.com", "segment.com", "segment.io",
			"mixpanel.com", "amplitude.com", "heap.io",
			"hotjar.com", "fullstory.com", "clarity.ms",
			"connect.facebook.net", "facebook.com",
			"doubleclick.net", "googlesyndication.com",
			"adservice.google.com", "advertising.com",
			"amazon-adsystem.com", "criteo.com",
			"taboola.com", "outbrain.com",
			"quantserve.com", "scorecardresearch.com",
			"bluekai.com", "krxd.net",
			"demdex.net", "rlcdn.com",
			"rubiconproject.com", "pubmatic.com",
			"openx.net", "bat.bing.com",
			"mc.yandex.ru",
			"px.ads.linkedin.com", "snap.licdn.com",
			"analytics.twitter.com",
			"analytics.tiktok.com",
		},
		PIIPatterns: map[string]string{
			"email":        `[a-zA-Z0-9._%+-]+(?:@|%40)[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
			"uid_param":    `[?&]uid=[^&]+`,
			"user_id":      `[?&]user_id=[^&]+`,
			"email_param":  `[?&]email=[^&]+`,
			"phone_param":  `[?&]phone=[^&]+`,
			"name_param":   `[?&](?:first_name|last_name|fullname)=[^&]+`,
			"hashed_id":    `\b[a-f0-9]{64}\b`,
			"ip_address":   `[?&][a-z_]*ip[a-z_]*=\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`,
		},
		BannerMarkers: []string{
			"cookie", "consent", "gdpr", "privacy-banner", "cmp",
		},
		OptOutPhrases: []string{
			"do not sell", "do not share", "your privacy choices",
			"california privacy", "opt-out", "opt out",
			"limit the use", "your ad choices",
		},
		RejectPhrases: []string{
			"reject all", "decline all", "necessary only", "only essential",
			"decline cookies", "reject", "decline", "no thanks",
		},
	}
}
