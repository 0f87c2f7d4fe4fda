package utils

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Well-known pages where companies publish staff contact details.
var crawlPaths = []string{
	"/", "/about", "/about-us", "/team", "/our-team",
	"/contact", "/contact-us", "/people", "/staff",
	"/company", "/leadership", "/management",
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Generic mailbox names excluded from pattern detection.
var roleAddresses = map[string]bool{
	"info": true, "contact": true, "support": true, "office": true,
	"hello": true, "admin": true, "sales": true, "hr": true,
	"marketing": true, "press": true, "media": true, "team": true,
	"jobs": true, "careers": true, "billing": true, "help": true,
	"no-reply": true, "noreply": true, "webmaster": true, "postmaster": true,
	"abuse": true, "security": true, "feedback": true,
}

// ScrapeResult is what crawling a domain's website yields. Cached by domain
// and immutable once returned.
type ScrapeResult struct {
	Domain          string   `json:"domain"`
	EmailsFound     []string `json:"emails_found"`
	DomainEmails    []string `json:"domain_emails"`
	ExternalEmails  []string `json:"external_emails"`
	DetectedPattern string   `json:"detected_pattern,omitempty"`
	SampleEmails    []string `json:"sample_emails,omitempty"`
}

type WebsiteScraper struct {
	client    *http.Client
	cache     *Cache[*ScrapeResult]
	batchSize int
	maxBody   int64
	logger    *logrus.Entry

	// BaseURLs builds the site variants to try for a domain, in order.
	// Overridable in tests.
	BaseURLs func(domain string) []string
}

func NewWebsiteScraper(cache *Cache[*ScrapeResult], pageTimeout time.Duration) *WebsiteScraper {
	return &WebsiteScraper{
		client:    &http.Client{Timeout: pageTimeout},
		cache:     cache,
		batchSize: 3,
		maxBody:   2 << 20,
		logger:    logrus.WithField("component", "scraper"),
		BaseURLs: func(domain string) []string {
			return []string{"https://" + domain, "https://www." + domain}
		},
	}
}

// Scrape crawls the well-known paths under the domain (and its www variant),
// extracts and classifies every address found, and infers the site's naming
// convention. Fetch failures contribute nothing; the crawl never fails.
func (ws *WebsiteScraper) Scrape(ctx context.Context, domain string) *ScrapeResult {
	d := strings.ToLower(strings.TrimSpace(domain))
	if cached, ok := ws.cache.Get("scrape:" + d); ok {
		return cached
	}

	seen := make(map[string]bool)
	var found []string

	for _, base := range ws.BaseURLs(d) {
		for i := 0; i < len(crawlPaths); i += ws.batchSize {
			end := i + ws.batchSize
			if end > len(crawlPaths) {
				end = len(crawlPaths)
			}
			batch := crawlPaths[i:end]
			pages := make([][]string, len(batch))

			g, gctx := errgroup.WithContext(ctx)
			for j, path := range batch {
				j, path := j, path
				g.Go(func() error {
					pages[j] = ws.fetchPage(gctx, base+path)
					return nil
				})
			}
			_ = g.Wait()

			for _, emails := range pages {
				for _, email := range emails {
					if !seen[email] {
						seen[email] = true
						found = append(found, email)
					}
				}
			}
		}
		// The first variant that yields anything wins; skip the www retry.
		if len(found) > 0 {
			break
		}
	}

	result := &ScrapeResult{Domain: d, EmailsFound: found}
	for _, email := range found {
		if strings.HasSuffix(email, "@"+d) {
			result.DomainEmails = append(result.DomainEmails, email)
		} else {
			result.ExternalEmails = append(result.ExternalEmails, email)
		}
	}
	result.DetectedPattern, result.SampleEmails = DetectPattern(result.DomainEmails, d)

	ws.cache.Set("scrape:"+d, result)
	return result
}

func (ws *WebsiteScraper) fetchPage(ctx context.Context, url string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; FindAnyMail/2.0)")
	req.Header.Set("Accept", "text/html")

	res, err := ws.client.Do(req)
	if err != nil {
		return nil
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil
	}
	if !strings.Contains(res.Header.Get("Content-Type"), "text/html") {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, ws.maxBody))
	if err != nil {
		return nil
	}
	return ExtractEmails(string(body))
}

// ExtractEmails pulls addresses out of HTML: visible text (scripts and styles
// stripped) plus mailto: links, lower-cased, deduplicated and noise-filtered.
func ExtractEmails(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	sb.WriteString(doc.Text())
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			addr := strings.TrimPrefix(href, "mailto:")
			addr = strings.Split(addr, "?")[0]
			sb.WriteString(" " + addr)
		}
	})

	seen := make(map[string]bool)
	var out []string
	for _, match := range emailPattern.FindAllString(sb.String(), -1) {
		email := strings.ToLower(strings.TrimSpace(match))
		if seen[email] || isNoiseEmail(email) {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

// isNoiseEmail filters tracking-script artifacts, file-extension false
// positives, and placeholder addresses.
func isNoiseEmail(email string) bool {
	switch {
	case strings.Contains(email, "example.com"),
		strings.Contains(email, "sentry"),
		strings.Contains(email, "wixpress"),
		strings.Contains(email, "webpack"),
		strings.HasSuffix(email, ".png"),
		strings.HasSuffix(email, ".jpg"),
		len(email) >= 80:
		return true
	}
	return false
}

// DetectPattern classifies the local parts of same-domain addresses by shape
// and returns the plurality winner, plus up to 5 sample addresses. Role
// mailboxes are excluded from the vote. Ties resolve to whichever shape
// reached the winning count first.
func DetectPattern(domainEmails []string, domain string) (string, []string) {
	if len(domainEmails) == 0 {
		return "", nil
	}

	counts := make(map[string]int)
	var top string
	var topCount int

	for _, email := range domainEmails {
		local := strings.Split(email, "@")[0]
		if roleAddresses[local] {
			continue
		}
		shape := classifyLocalPart(local)
		if shape == "" {
			continue
		}
		counts[shape]++
		if counts[shape] > topCount {
			top = shape
			topCount = counts[shape]
		}
	}

	samples := domainEmails
	if len(samples) > 5 {
		samples = samples[:5]
	}
	return top, samples
}

func classifyLocalPart(local string) string {
	switch {
	case strings.Contains(local, "."):
		parts := strings.Split(local, ".")
		if len(parts) != 2 {
			return ""
		}
		switch {
		case len(parts[0]) > 1 && len(parts[1]) > 1:
			return "first.last"
		case len(parts[0]) == 1:
			return "f.last"
		case len(parts[1]) == 1:
			return "first.l"
		}
		return ""
	case strings.Contains(local, "_"):
		return "first_last"
	case strings.Contains(local, "-"):
		return "first-last"
	case len(local) <= 15 && isAllLetters(local):
		// Could be first, last, or a bare concatenation; without more
		// context the concatenation bucket is the safest vote.
		return "firstlast"
	}
	return ""
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return len(s) > 0
}
