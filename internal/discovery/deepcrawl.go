package discovery

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
	"github.com/sitescout/harvester/internal/scoring"
)

// crawlResult is what a crawl worker hands back to the coordinator: the item
// it fetched and the raw hrefs found on the page.
type crawlResult struct {
	item  frontierItem
	links []string
}

// deepCrawl runs the budgeted breadth-first traversal. A single coordinator
// goroutine owns the frontier and the candidate set; workers only fetch and
// parse. Each dispatched fetch consumes one unit of the deep-crawl budget
// before the request is issued, so at most budget-many fetches ever happen.
// The crawl ends when the budget runs out or the frontier drains, whichever
// comes first.
func (e *Engine) deepCrawl(ctx context.Context, seed harvest.CandidateURL) {
	work := make(chan frontierItem)
	results := make(chan crawlResult)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.DeepCrawlWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				results <- crawlResult{item: item, links: e.fetchLinks(ctx, item.url)}
			}
		}()
	}

	f := newFrontier()
	f.Push(frontierItem{
		url:      seed.URL,
		priority: scoring.KeywordScore(seed.URL),
		seq:      seed.Seq,
		depth:    0,
	})

	inFlight := 0
	budgetExhausted := false
	for {
		canDispatch := f.Len() > 0 && !budgetExhausted && ctx.Err() == nil
		if canDispatch && inFlight < e.cfg.DeepCrawlWorkers {
			// inFlight < workers guarantees an idle worker is blocked on
			// the work channel, so this send cannot deadlock.
			next := f.Pop()
			if !e.budgets.TakeDeepCrawlFetch() {
				budgetExhausted = true
				continue
			}
			work <- next
			inFlight++
			continue
		}
		if inFlight == 0 {
			break
		}
		res := <-results
		inFlight--
		e.expand(f, res)
	}

	close(work)
	wg.Wait()
	close(results)
}

// expand admits a fetched page's outbound links and enqueues the new ones.
// Child priority inherits a boost from a high-scoring parent but is capped
// at half the parent's priority so boosts decay with distance.
func (e *Engine) expand(f *frontier, res crawlResult) {
	for _, href := range res.links {
		cand, ok := e.admit(href, res.item.url, harvest.SourceCrawl, res.item.depth+1)
		if !ok {
			continue
		}
		priority := scoring.KeywordScore(cand.URL)
		if inherited := res.item.priority / 2; inherited > priority {
			priority = inherited
		}
		f.Push(frontierItem{
			url:      cand.URL,
			priority: priority,
			seq:      cand.Seq,
			depth:    cand.Depth,
		})
	}
}

// fetchLinks retrieves a page and returns its anchor hrefs. Fetch or parse
// failures yield no links; discovery keeps going.
func (e *Engine) fetchLinks(ctx context.Context, pageURL string) []string {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil
	}
	page, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		e.logger.Debug("deep crawl fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		e.logger.Debug("deep crawl parse failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links
}
