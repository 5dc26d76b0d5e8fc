package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/hireloop/recommender/internal/catalog"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; HireloopCatalogCrawler/1.2)"

// Config holds crawler configuration.
type Config struct {
	// StartURL is the catalog listing page the crawl begins at.
	StartURL string

	// MaxPages bounds the number of listing pages visited.
	MaxPages int

	// DelayMS is the pause between page loads, to stay polite.
	DelayMS int

	// PageTimeout bounds rendering of a single page.
	PageTimeout time.Duration

	// UserAgent is sent with every page load.
	UserAgent string
}

// DefaultConfig returns the production crawl configuration.
func DefaultConfig(startURL string) Config {
	return Config{
		StartURL:    startURL,
		MaxPages:    200,
		DelayMS:     600,
		PageTimeout: 30 * time.Second,
		UserAgent:   defaultUserAgent,
	}
}

// Crawler walks the paginated product catalog with a headless browser,
// follows every listing page it discovers, and enriches each product from its
// detail page. The catalog renders listing tables client-side, so plain HTTP
// fetches see empty shells.
type Crawler struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a crawler.
func New(cfg Config, logger *slog.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 200
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{cfg: cfg, logger: logger}
}

var (
	productLinkPattern = regexp.MustCompile(`/product-catalog/view/[^\s"']+`)
	pageParamPattern   = regexp.MustCompile(`(?i)(\?|&)(page|_page)=\d+`)
	durationPattern    = regexp.MustCompile(`(?i)(\d{1,3})\s*min`)
	testTypePattern    = regexp.MustCompile(`(?i)Test Type[:\s]*([A-Z])`)
	languagesPattern   = regexp.MustCompile(`(?i)Languages?[:\s]+([A-Za-z][A-Za-z ,()\-]*)`)
)

// Crawl visits the catalog and returns the discovered items in the order the
// crawl found them. The returned items carry no embeddings.
func (c *Crawler) Crawl(ctx context.Context) ([]catalog.Item, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	c.logger.Info("starting catalog crawl", "start_url", c.cfg.StartURL)

	productURLs, err := c.scanListingPages(browserCtx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("listing scan complete", "product_urls", len(productURLs))

	items := make([]catalog.Item, 0, len(productURLs))
	for i, u := range productURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageHTML, err := c.renderPage(browserCtx, u)
		if err != nil {
			c.logger.Warn("detail page failed", "url", u, "error", err)
			continue
		}

		item := parseDetailPage(pageHTML, u)
		if err := item.Validate(); err != nil {
			c.logger.Warn("skipping malformed item", "url", u, "error", err)
			continue
		}
		items = append(items, item)

		if (i+1)%20 == 0 {
			c.logger.Info("detail progress", "fetched", i+1, "total", len(productURLs))
		}
		c.pause(ctx)
	}

	c.logger.Info("catalog crawl finished", "items", len(items))
	return items, nil
}

// scanListingPages BFS-walks the catalog listing pages, collecting product
// detail URLs and newly discovered pagination links.
func (c *Crawler) scanListingPages(browserCtx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	products := make(map[string]struct{})
	queue := []string{c.cfg.StartURL}

	visited := 0
	for len(queue) > 0 && visited < c.cfg.MaxPages {
		page := queue[0]
		queue = queue[1:]
		if _, ok := seen[page]; ok {
			continue
		}
		seen[page] = struct{}{}
		visited++

		pageHTML, err := c.renderPage(browserCtx, page)
		if err != nil {
			if visited == 1 {
				return nil, fmt.Errorf("render start page: %w", err)
			}
			c.logger.Warn("listing page failed", "url", page, "error", err)
			continue
		}

		links := extractLinks(pageHTML, page)
		found := 0
		for _, l := range links {
			switch {
			case productLinkPattern.MatchString(l):
				if _, ok := products[l]; !ok {
					products[l] = struct{}{}
					found++
				}
			case isPaginationLink(l):
				if _, ok := seen[l]; !ok {
					queue = append(queue, l)
				}
			}
		}
		c.logger.Debug("scanned listing page", "url", page, "new_products", found, "queue", len(queue))
		c.pause(browserCtx)
	}

	urls := make([]string, 0, len(products))
	for u := range products {
		urls = append(urls, u)
	}
	// Stable order keeps item IDs and catalog positions reproducible run to run.
	sort.Strings(urls)
	return urls, nil
}

// renderPage loads url in the browser and returns the rendered document.
func (c *Crawler) renderPage(browserCtx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(browserCtx, c.cfg.PageTimeout)
	defer cancel()

	var rendered string
	err := chromedp.Run(ctx,
		network.Enable(),
		emulation.SetUserAgentOverride(c.cfg.UserAgent),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &rendered),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return rendered, nil
}

func (c *Crawler) pause(ctx context.Context) {
	if c.cfg.DelayMS <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(c.cfg.DelayMS) * time.Millisecond):
	}
}

// extractLinks returns the absolute form of every anchor href on the page.
func extractLinks(pageHTML, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				links = append(links, base.ResolveReference(ref).String())
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links
}

func isPaginationLink(link string) bool {
	return strings.Contains(link, "/product-catalog") && pageParamPattern.MatchString(link)
}

// parseDetailPage extracts a catalog item from a rendered product page. The
// item ID is derived from the URL, so re-crawls update rather than duplicate.
func parseDetailPage(pageHTML, productURL string) catalog.Item {
	item := catalog.Item{
		ID:  uuid.NewSHA1(uuid.NameSpaceURL, []byte(productURL)).String(),
		URL: productURL,
	}

	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		item.Name = nameFromURL(productURL)
		return item
	}

	item.Name = firstHeading(doc)
	if item.Name == "" {
		item.Name = nameFromURL(productURL)
	}

	whole := collapseWhitespace(nodeText(doc))
	item.Description = longestBlockText(doc)
	if item.Description == "" {
		item.Description = whole
	}

	if m := durationPattern.FindStringSubmatch(whole); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			item.DurationMin = n
		}
	}
	if m := testTypePattern.FindStringSubmatch(whole); m != nil {
		item.TestType = catalog.TestType(strings.ToUpper(m[1]))
	}
	if m := languagesPattern.FindStringSubmatch(whole); m != nil {
		for _, l := range strings.Split(m[1], ",") {
			if l = strings.TrimSpace(l); l != "" {
				item.Languages = append(item.Languages, l)
			}
		}
	}

	return item
}

// firstHeading returns the text of the first h1 or h2 on the page.
func firstHeading(doc *html.Node) string {
	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "h1" || n.Data == "h2") {
			found = collapseWhitespace(nodeText(n))
			return true
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return found
}

// longestBlockText picks the longest meaningful content container, which on
// these pages is the product description.
func longestBlockText(doc *html.Node) string {
	var best string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "article", "main", "section":
				if txt := collapseWhitespace(nodeText(n)); len(txt) > 80 && len(txt) > len(best) {
					best = txt
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return best
}

// nodeText collects visible text under n, skipping script and style subtrees.
func nodeText(n *html.Node) string {
	if n.Type == html.ElementNode && isInvisibleTag(n.Data) {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data + " "
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(nodeText(child))
	}
	return b.String()
}

func nameFromURL(productURL string) string {
	trimmed := strings.TrimRight(productURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.ReplaceAll(trimmed, "-", " ")
}
