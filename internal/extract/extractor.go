// Package extract pulls contact records out of fetched HTML. It works in
// three passes: structured contact-card containers, mailto links with
// surrounding context, and finally bare email addresses found in text.
// Failures are isolated to the page; a bad document yields zero records.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}|\+?\d{10,}`)
)

// cardSelectors identify per-person containers. Ordered from most to least
// specific; the first selector that yields contacts wins.
var cardSelectors = []string{
	".contact-card", ".contact-info", ".person-card",
	".staff-member", ".faculty-member", ".team-member", ".profile",
	".employee", ".directory-entry", ".staff-card", ".faculty-card",
	"[class*='staff-member']", "[class*='faculty-member']",
	"[class*='person-card']", "[class*='contact-card']",
	"[class*='team-member']", "[class*='employee']",
}

var nameSelectors = []string{".name", ".person-name", "h1", "h2", "h3", "h4", "[class*='name']", "strong", "b"}

var designationSelectors = []string{
	".designation", ".position", ".job-title",
	"[class*='designation']", "[class*='position']", "[class*='role']",
}

// Extractor satisfies harvest.ContactExtractor.
type Extractor struct {
	logger *zap.Logger
}

// New builds an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract returns every contact found on the page. Records always carry an
// email; name, phone, and designation are best-effort.
func (e *Extractor) Extract(html, sourceURL string) []harvest.ContactRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Debug("contact extraction parse failed", zap.String("url", sourceURL), zap.Error(err))
		return nil
	}

	if contacts := e.fromCards(doc, sourceURL); len(contacts) > 0 {
		return contacts
	}
	if contacts := e.fromMailtoLinks(doc, sourceURL); len(contacts) > 0 {
		return contacts
	}
	return e.fromText(doc, sourceURL)
}

func (e *Extractor) fromCards(doc *goquery.Document, sourceURL string) []harvest.ContactRecord {
	for _, selector := range cardSelectors {
		var contacts []harvest.ContactRecord
		doc.Find(selector).Each(func(_ int, card *goquery.Selection) {
			record := harvest.ContactRecord{SourceURL: sourceURL, Method: "card"}
			text := card.Text()

			record.Email = emailRe.FindString(text)
			if record.Email == "" {
				if href, ok := card.Find("a[href^='mailto:']").Attr("href"); ok {
					record.Email = strings.TrimPrefix(href, "mailto:")
				}
			}
			if href, ok := card.Find("a[href^='tel:']").Attr("href"); ok {
				record.Phone = strings.TrimPrefix(href, "tel:")
			} else {
				record.Phone = phoneRe.FindString(text)
			}
			for _, sel := range nameSelectors {
				if candidate := strings.TrimSpace(card.Find(sel).First().Text()); looksLikeName(candidate) {
					record.Name = candidate
					break
				}
			}
			for _, sel := range designationSelectors {
				if candidate := strings.TrimSpace(card.Find(sel).First().Text()); looksLikeDesignation(candidate) {
					record.Designation = candidate
					break
				}
			}

			if record = clean(record); record.Email != "" {
				contacts = append(contacts, record)
			}
		})
		if len(contacts) > 0 {
			return contacts
		}
	}
	return nil
}

func (e *Extractor) fromMailtoLinks(doc *goquery.Document, sourceURL string) []harvest.ContactRecord {
	var contacts []harvest.ContactRecord
	doc.Find("a[href^='mailto:']").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		email := strings.TrimSpace(strings.TrimPrefix(href, "mailto:"))
		if i := strings.Index(email, "?"); i >= 0 {
			email = email[:i]
		}
		if !strings.Contains(email, "@") {
			return
		}
		record := harvest.ContactRecord{
			Email:     email,
			Name:      nameFromEmail(email),
			SourceURL: sourceURL,
			Method:    "mailto",
		}

		// Walk up to three ancestors looking for a heading, a phone link,
		// and name/designation classed elements.
		context := link
		for level := 0; level < 3; level++ {
			context = context.Parent()
			if context.Length() == 0 {
				break
			}
			if record.Phone == "" {
				if tel, ok := context.Find("a[href^='tel:']").Attr("href"); ok {
					record.Phone = strings.TrimPrefix(tel, "tel:")
				}
			}
			if heading := strings.TrimSpace(context.Find("h1,h2,h3,h4,h5,h6").First().Text()); looksLikeName(heading) {
				record.Name = heading
			}
			if record.Designation == "" {
				context.Find("strong,b,span,div,p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
					class, _ := sel.Attr("class")
					class = strings.ToLower(class)
					text := strings.TrimSpace(sel.Text())
					if hasAny(class, "title", "position", "designation", "role", "job") && looksLikeDesignation(text) {
						record.Designation = text
						return false
					}
					if hasAny(class, "name", "staff", "faculty", "person", "author") && looksLikeName(text) {
						record.Name = text
					}
					return true
				})
			}
		}

		if record = clean(record); record.Email != "" {
			contacts = append(contacts, record)
		}
	})
	return contacts
}

func (e *Extractor) fromText(doc *goquery.Document, sourceURL string) []harvest.ContactRecord {
	var contacts []harvest.ContactRecord
	seen := make(map[string]struct{})
	for _, email := range emailRe.FindAllString(doc.Text(), -1) {
		key := strings.ToLower(email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		record := clean(harvest.ContactRecord{
			Email:     email,
			Name:      nameFromEmail(email),
			SourceURL: sourceURL,
			Method:    "text",
		})
		if record.Email != "" {
			contacts = append(contacts, record)
		}
	}
	return contacts
}

// nameFromEmail converts first.last or first_last usernames into a display
// name. Anything else returns empty.
func nameFromEmail(email string) string {
	username, _, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	parts := strings.Split(strings.ReplaceAll(username, "_", "."), ".")
	if len(parts) < 2 {
		return ""
	}
	for _, part := range parts {
		if len(part) < 2 || !isAlphaWord(strings.ReplaceAll(part, "-", "")) {
			return ""
		}
	}
	titled := make([]string, len(parts))
	for i, part := range parts {
		titled[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(titled, " ")
}

var nameExcludeKeywords = []string{
	"email", "phone", "contact", "enquiry", "inquiry", "general", "information",
	"click", "here", "http", "www", "subject", "message", "please", "copyright",
	"university", "college", "school", "department", "faculty", "office",
}

func looksLikeName(text string) bool {
	if len(text) < 3 || len(text) > 100 {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range nameExcludeKeywords {
		if strings.Contains(lower, keyword) {
			return false
		}
	}
	words := strings.Fields(text)
	if len(words) < 2 || len(words) > 5 {
		return false
	}
	capitalized := 0
	for _, word := range words {
		if word != "" && word[0] >= 'A' && word[0] <= 'Z' {
			capitalized++
		}
	}
	return capitalized*2 >= len(words)
}

var designationKeywords = []string{
	"professor", "lecturer", "dean", "head", "director", "manager", "coordinator",
	"senior", "junior", "associate", "assistant", "officer", "executive",
	"lead", "chief", "specialist", "consultant", "advisor", "counselor",
	"programme", "program", "faculty", "department", "academic", "research",
}

func looksLikeDesignation(text string) bool {
	if len(text) < 5 || len(text) > 150 {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range designationKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// clean applies the field hygiene rules: trimmed whitespace, minimum field
// lengths, and a well-formed email.
func clean(record harvest.ContactRecord) harvest.ContactRecord {
	record.Email = strings.TrimSpace(record.Email)
	if !strings.Contains(record.Email, "@") {
		record.Email = ""
	}
	record.Name = strings.TrimSpace(record.Name)
	if len(record.Name) <= 2 {
		record.Name = ""
	}
	record.Phone = strings.TrimSpace(record.Phone)
	if len(record.Phone) < 7 {
		record.Phone = ""
	}
	record.Designation = strings.TrimSpace(record.Designation)
	if len(record.Designation) <= 2 {
		record.Designation = ""
	}
	return record
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isAlphaWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
