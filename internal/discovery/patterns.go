package discovery

import "github.com/sitescout/harvester/internal/harvest"

// patternPaths are relative paths that correlate strongly with staff and
// contact pages. The strategy is purely generative: URLs that do not exist
// surface later as fetch failures, not here.
var patternPaths = []string{
	"/contact",
	"/contact-us",
	"/contactus",
	"/contacts",
	"/get-in-touch",
	"/reach-us",

	"/staff",
	"/staff-directory",
	"/faculty",
	"/faculty-directory",
	"/people",
	"/team",
	"/directory",
	"/our-staff",
	"/our-faculty",
	"/about/staff",
	"/about/faculty",

	"/about/contact",
	"/about/contacts",
	"/support",
	"/help",
}

// discoverPatterns concatenates the target origin with the pattern table.
// No network calls are made.
func (e *Engine) discoverPatterns() {
	origin := e.origin()
	for _, p := range patternPaths {
		e.admit(origin+p, "", harvest.SourcePattern, 0)
	}
}
