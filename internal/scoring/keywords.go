// Package scoring ranks candidate URLs by contact-page likelihood. A
// deterministic tiered keyword pass scores every candidate; sub-threshold
// candidates are refined in fixed-size batches by an AI scorer.
package scoring

import (
	"net/url"
	"strings"
)

// HighConfidenceThreshold finalizes a candidate on its keyword score alone.
// Candidates at or above it never reach the AI scorer.
const HighConfidenceThreshold = 60

// keywordTiers maps path keywords to tier weights. A URL's keyword score is
// the maximum weight among all matching keywords, not the sum: matching both
// a tier-100 and a tier-80 keyword yields 100.
var keywordTiers = map[string]int{
	// Individual staff profiles.
	"professor": 120, "lecturer": 120, "dr-": 120, "prof-": 120,
	"associate-professor": 120, "assistant-professor": 120,

	// Contact pages and directories.
	"contact": 100, "contacts": 100, "contact-us": 100, "contactus": 100,
	"directory": 100, "staff-directory": 100, "faculty-directory": 100,
	"people-directory": 100,

	// Staff and faculty listings.
	"staff": 80, "faculty": 80, "team": 80, "people": 80,
	"employee": 80, "personnel": 80, "academic-staff": 80,
	"faculty-members": 80, "teaching-staff": 80, "research-staff": 80,

	// Departments and units.
	"about": 60, "about-us": 60, "aboutus": 60,
	"department": 60, "departments": 60, "school": 60,
	"administration": 60, "management": 60, "leadership": 60,
	"dean": 60, "head": 60, "director": 60, "institute": 60,

	// Support and services.
	"office": 40, "offices": 40, "support": 40,
	"service": 40, "help": 40, "enquiry": 40,
	"enquiries": 40, "inquiry": 40, "advisor": 40,
	"counselor": 40, "counsellor": 40,

	// Profiles and bios.
	"profile": 20, "bio": 20, "biography": 20,
	"member": 20, "research": 20, "academic": 20,
}

// KeywordScore returns the tiered keyword score for a canonical URL.
func KeywordScore(canonicalURL string) int {
	subject := canonicalURL
	if u, err := url.Parse(canonicalURL); err == nil && u.Path != "" {
		subject = u.Path
		if u.RawQuery != "" {
			subject += "?" + u.RawQuery
		}
	}
	subject = strings.ToLower(subject)

	best := 0
	for keyword, weight := range keywordTiers {
		if weight > best && strings.Contains(subject, keyword) {
			best = weight
		}
	}
	return best
}
