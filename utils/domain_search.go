package utils

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DomainSearchEmail is one discovered address with its probe verdict.
type DomainSearchEmail struct {
	Email      string `json:"email"`
	SMTPStatus string `json:"smtp_status"`
	SMTPCode   int    `json:"smtp_code,omitempty"`
	Verified   bool   `json:"verified"`
}

type DomainSearchResult struct {
	Domain          string              `json:"domain"`
	Provider        string              `json:"provider,omitempty"`
	MXServer        string              `json:"mx_server,omitempty"`
	IsCatchAll      bool                `json:"is_catch_all"`
	DetectedPattern string              `json:"detected_pattern,omitempty"`
	EmailsFound     int                 `json:"emails_found"`
	Emails          []DomainSearchEmail `json:"emails"`
	Error           string              `json:"error,omitempty"`
	DurationMS      int64               `json:"duration_ms"`
}

// DomainSearcher finds every discoverable address for a domain: DNS
// intelligence, website crawl and catch-all probe, then one SMTP session over
// the scraped same-domain addresses.
type DomainSearcher struct {
	DNS     DomainIntelProvider
	Scraper SiteScraper
	SMTP    SMTPProber
}

func NewDomainSearcher(dns *DomainIntelligence, scraper *WebsiteScraper, smtp *SMTPVerifier) *DomainSearcher {
	return &DomainSearcher{DNS: dns, Scraper: scraper, SMTP: smtp}
}

func (s *DomainSearcher) Search(ctx context.Context, domain string) *DomainSearchResult {
	start := time.Now()
	d := strings.ToLower(strings.TrimSpace(domain))
	result := &DomainSearchResult{Domain: d, Emails: []DomainSearchEmail{}}

	intel := s.DNS.Lookup(ctx, d)
	if !intel.HasMX {
		result.Error = intel.Error
		if result.Error == "" {
			result.Error = "No mail server found."
		}
		result.DurationMS = time.Since(start).Milliseconds()
		return result
	}
	result.Provider = intel.Provider
	result.MXServer = intel.PreferredMX

	var (
		scrape     *ScrapeResult
		isCatchAll bool
		wg         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		scrape = s.Scraper.Scrape(ctx, d)
	}()
	go func() {
		defer wg.Done()
		isCatchAll = s.SMTP.IsCatchAll(d, intel.PreferredMX)
	}()
	wg.Wait()

	result.IsCatchAll = isCatchAll
	result.DetectedPattern = scrape.DetectedPattern
	result.EmailsFound = len(scrape.DomainEmails)

	if len(scrape.DomainEmails) > 0 {
		probes := s.SMTP.VerifyAddresses(scrape.DomainEmails, intel.PreferredMX)
		for _, p := range probes {
			result.Emails = append(result.Emails, DomainSearchEmail{
				Email:      p.Email,
				SMTPStatus: p.Status,
				SMTPCode:   p.Code,
				Verified:   p.Status == SMTPStatusValid,
			})
		}
	}

	result.DurationMS = time.Since(start).Milliseconds()
	return result
}
