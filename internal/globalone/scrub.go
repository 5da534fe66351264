package globalone

import (
	"regexp"
	"strings"
)

const filtered = "[FILTERED]"

var scrubbedElements = []string{"CARDNUMBER", "CVV", "TERMINALID", "HASH"}

var scrubPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(scrubbedElements)*2)
	for _, el := range scrubbedElements {
		patterns = append(patterns,
			regexp.MustCompile(`(<`+el+`>)[^<]*(</`+el+`>)`),
			regexp.MustCompile(`(?i)(%3C`+el+`%3E).*?(%3C%2F`+el+`%3E)`),
		)
	}
	return patterns
}()

// SupportsScrubbing reports that Scrub is implemented.
func (g *Gateway) SupportsScrubbing() bool { return true }

// Scrub redacts card data and credentials from a request/response transcript.
// The result is safe to log or persist.
func (g *Gateway) Scrub(transcript string) string {
	for _, p := range scrubPatterns {
		transcript = p.ReplaceAllString(transcript, "${1}"+filtered+"${2}")
	}
	for _, credential := range []string{g.cfg.Secret, g.cfg.TerminalID} {
		if credential != "" {
			transcript = strings.ReplaceAll(transcript, credential, filtered)
		}
	}
	return transcript
}
