package discovery

import (
	"context"
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

// sitemapPaths are the conventional locations probed in order.
var sitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemaps/sitemap.xml",
	"/sitemap/sitemap.xml",
}

// Some fetch services return sitemaps wrapped in an HTML shell; the embedded
// urlset/sitemapindex block is still intact inside it.
var wrappedSitemapRe = regexp.MustCompile(`(?is)<(urlset|sitemapindex)[^>]*>.*?</(?:urlset|sitemapindex)>`)

// discoverSitemaps probes the conventional sitemap paths and admits every
// listed location. The first reachable sitemap that yields URLs wins; failing
// to find any sitemap is not an error.
func (e *Engine) discoverSitemaps(ctx context.Context) {
	origin := e.origin()
	for _, probe := range sitemapPaths {
		if ctx.Err() != nil {
			return
		}
		sitemapURL := origin + probe
		page, err := e.fetcher.Fetch(ctx, sitemapURL)
		if err != nil {
			e.logger.Debug("sitemap probe failed", zap.String("url", sitemapURL), zap.Error(err))
			continue
		}
		locs := extractSitemapLocs(page.HTML)
		if len(locs) == 0 {
			continue
		}
		admitted := 0
		for _, loc := range locs {
			if _, ok := e.admit(loc, sitemapURL, harvest.SourceSitemap, 0); ok {
				admitted++
			}
		}
		e.logger.Info("sitemap discovered",
			zap.String("url", sitemapURL),
			zap.Int("locations", len(locs)),
			zap.Int("admitted", admitted),
		)
		return
	}
	e.logger.Debug("no sitemap found", zap.String("origin", origin))
}

// extractSitemapLocs pulls every <loc> entry out of a sitemap document. The
// body may be raw XML or an HTML page wrapping the XML.
func extractSitemapLocs(body string) []string {
	locs := parseLocs(body)
	if len(locs) > 0 {
		return locs
	}
	if match := wrappedSitemapRe.FindString(body); match != "" {
		return parseLocs(match)
	}
	return nil
}

func parseLocs(doc string) []string {
	decoder := xml.NewDecoder(strings.NewReader(doc))
	decoder.Strict = false
	var locs []string
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "loc") {
			continue
		}
		var loc string
		if err := decoder.DecodeElement(&loc, &start); err != nil {
			continue
		}
		if loc = strings.TrimSpace(loc); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs
}
