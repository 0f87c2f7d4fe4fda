package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// How many top candidates get the external profile/validity checks.
const (
	externalCheckCandidates = 8
	disifyCheckCandidates   = 5
)

// Collaborator contracts the pipeline depends on. The concrete services in
// this package satisfy them; tests substitute fakes.
type (
	DomainIntelProvider interface {
		Lookup(ctx context.Context, domain string) *DomainIntel
	}
	SiteScraper interface {
		Scrape(ctx context.Context, domain string) *ScrapeResult
	}
	SMTPProber interface {
		VerifyAddresses(emails []string, mxHost string) []ProbeResult
		IsCatchAll(domain, mxHost string) bool
	}
	CompanyResolver interface {
		Resolve(ctx context.Context, companyName string) *CompanyInfo
	}
	GravatarProber interface {
		Has(ctx context.Context, email string) bool
		BatchCheck(ctx context.Context, emails []string) map[string]bool
	}
	DisifyProber interface {
		BatchCheck(ctx context.Context, emails []string, maxChecks int) map[string]bool
	}
	AIRanker interface {
		Enabled() bool
		Analyze(ctx context.Context, req AIAnalyzeRequest) AIAnalysis
	}
	Enricher interface {
		Enabled() bool
		EmailFinder(ctx context.Context, firstName, lastName, domain string) *HunterFinder
	}
)

type FindRequest struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	DomainOrCompany string `json:"domain_or_company" validate:"required"`
}

// FindMeta accumulates the step log, warnings, counters and timing for one
// discovery run. Owned by a single run, never shared.
type FindMeta struct {
	RunID              string      `json:"run_id"`
	Domain             string      `json:"domain,omitempty"`
	Company            string      `json:"company,omitempty"`
	Provider           string      `json:"provider,omitempty"`
	MXServer           string      `json:"mx_server,omitempty"`
	IsCatchAll         bool        `json:"is_catch_all"`
	DetectedPattern    string      `json:"detected_pattern,omitempty"`
	WebsiteEmailsFound int         `json:"website_emails_found"`
	TotalPatterns      int         `json:"total_patterns"`
	SMTPVerified       int         `json:"smtp_verified"`
	SMTPRejected       int         `json:"smtp_rejected"`
	SMTPAvailable      bool        `json:"smtp_available"`
	GravatarHits       int         `json:"gravatar_hits"`
	DisifyChecked      int         `json:"disify_checked"`
	AIAnalysis         *AIAnalysis `json:"ai_analysis,omitempty"`
	HunterResult       string      `json:"hunter_result,omitempty"`
	Steps              []string    `json:"steps"`
	Warnings           []string    `json:"warnings"`
	DurationMS         int64       `json:"duration_ms"`
	Error              string      `json:"error,omitempty"`
}

type FindResponse struct {
	Results []ScoredEmail `json:"results"`
	Meta    FindMeta      `json:"meta"`
}

// Finder orchestrates one discovery run: domain resolution, DNS intelligence,
// website scraping and catch-all probing in parallel, candidate generation,
// a single SMTP session over all candidates, external signal gathering for
// the top candidates, optional AI/enrichment, then scoring and ranking.
type Finder struct {
	DNS       DomainIntelProvider
	Scraper   SiteScraper
	SMTP      SMTPProber
	Companies CompanyResolver
	Gravatar  GravatarProber
	Disify    DisifyProber
	AI        AIRanker
	Hunter    Enricher
	Logger    *logrus.Entry
}

func NewFinder(dns *DomainIntelligence, scraper *WebsiteScraper, smtp *SMTPVerifier,
	companies *DomainResolver, gravatar *GravatarChecker, disify *DisifyChecker,
	ai *AIAnalyzer, hunter *HunterClient) *Finder {
	return &Finder{
		DNS:       dns,
		Scraper:   scraper,
		SMTP:      smtp,
		Companies: companies,
		Gravatar:  gravatar,
		Disify:    disify,
		AI:        ai,
		Hunter:    hunter,
		Logger:    logrus.WithField("component", "finder"),
	}
}

// FindEmail runs the full discovery pipeline for one person. It always
// returns a structured response: hard failures (unresolvable domain, no mail
// exchange, unusable name) surface through Meta.Error with an empty result
// list, everything else degrades with warnings.
func (f *Finder) FindEmail(ctx context.Context, req FindRequest) *FindResponse {
	start := time.Now()
	meta := FindMeta{RunID: uuid.NewString()}
	fail := func(msg string) *FindResponse {
		meta.Error = msg
		meta.DurationMS = time.Since(start).Milliseconds()
		return &FindResponse{Results: []ScoredEmail{}, Meta: meta}
	}

	// Domain resolution.
	domain := strings.ToLower(strings.TrimSpace(req.DomainOrCompany))
	if !IsDomain(domain) {
		meta.Steps = append(meta.Steps, "Resolving company domain...")
		company := f.Companies.Resolve(ctx, domain)
		if company.Domain == "" {
			return fail(fmt.Sprintf("Could not resolve domain for %q. Try providing the domain directly (e.g. company.com).", domain))
		}
		meta.Company = company.Name
		domain = company.Domain
		meta.Steps = append(meta.Steps, "Resolved to: "+domain)
	}
	meta.Domain = domain

	// Domain intelligence; no mail exchange terminates the run.
	meta.Steps = append(meta.Steps, "Analyzing domain...")
	intel := f.DNS.Lookup(ctx, domain)
	if !intel.HasMX {
		reason := intel.Error
		if reason == "" {
			reason = "Domain has no mail server."
		}
		return fail(reason)
	}
	meta.Provider = intel.Provider
	meta.MXServer = intel.PreferredMX

	// Website scraping and catch-all probing are independent; join both
	// before generating candidates.
	meta.Steps = append(meta.Steps, "Scraping website + checking catch-all...")
	var (
		scrape     *ScrapeResult
		isCatchAll bool
		wg         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		scrape = f.Scraper.Scrape(ctx, domain)
	}()
	go func() {
		defer wg.Done()
		isCatchAll = f.SMTP.IsCatchAll(domain, intel.PreferredMX)
	}()
	wg.Wait()

	meta.IsCatchAll = isCatchAll
	meta.DetectedPattern = scrape.DetectedPattern
	meta.WebsiteEmailsFound = len(scrape.DomainEmails)
	if isCatchAll {
		meta.Warnings = append(meta.Warnings, "Domain is catch-all - SMTP verification is unreliable.")
	}

	// Candidate generation.
	meta.Steps = append(meta.Steps, "Generating patterns...")
	candidates, err := GeneratePatterns(req.FirstName, req.LastName, domain,
		scrape.DetectedPattern, intel.PreferredPatterns)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return fail(err.Error())
		}
		return fail("Pattern generation failed: " + err.Error())
	}
	meta.TotalPatterns = len(candidates)

	emails := make([]string, len(candidates))
	for i, c := range candidates {
		emails[i] = c.Email
	}

	// One SMTP session covers every candidate.
	meta.Steps = append(meta.Steps, "SMTP verification...")
	probes := f.SMTP.VerifyAddresses(emails, intel.PreferredMX)
	probeByEmail := make(map[string]ProbeResult, len(probes))
	for _, p := range probes {
		probeByEmail[p.Email] = p
		switch p.Status {
		case SMTPStatusValid:
			meta.SMTPVerified++
		case SMTPStatusInvalid:
			meta.SMTPRejected++
		}
	}
	meta.SMTPAvailable = meta.SMTPVerified > 0 || meta.SMTPRejected > 0
	if !meta.SMTPAvailable {
		meta.Warnings = append(meta.Warnings, "SMTP verification unavailable (port 25 blocked). Using alternative signals.")
	}

	// External checks on the top candidates, not only SMTP-valid ones.
	meta.Steps = append(meta.Steps, "Checking profiles + validation...")
	top := emails
	if len(top) > externalCheckCandidates {
		top = top[:externalCheckCandidates]
	}
	var (
		gravatarHits map[string]bool
		disifyHits   map[string]bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		gravatarHits = f.Gravatar.BatchCheck(ctx, top)
	}()
	go func() {
		defer wg.Done()
		disifyHits = f.Disify.BatchCheck(ctx, top, disifyCheckCandidates)
	}()
	wg.Wait()

	for _, hit := range gravatarHits {
		if hit {
			meta.GravatarHits++
		}
	}
	meta.DisifyChecked = len(disifyHits)

	// Optional AI pick and commercial enrichment.
	var aiPick AIAnalysis
	if f.AI != nil && f.AI.Enabled() {
		meta.Steps = append(meta.Steps, "AI analysis...")
		aiPick = f.AI.Analyze(ctx, AIAnalyzeRequest{
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Domain:          domain,
			Provider:        intel.Provider,
			DetectedPattern: scrape.DetectedPattern,
			SMTPResults:     probes,
			WebsiteEmails:   scrape.DomainEmails,
			IsCatchAll:      isCatchAll,
		})
		if aiPick.BestEmail != "" {
			meta.AIAnalysis = &aiPick
		}
	}
	var hunterPick *HunterFinder
	if f.Hunter != nil && f.Hunter.Enabled() {
		meta.Steps = append(meta.Steps, "API enrichment...")
		hunterPick = f.Hunter.EmailFinder(ctx, req.FirstName, req.LastName, domain)
		if hunterPick != nil {
			meta.HunterResult = hunterPick.Email
		}
	}

	// Fuse and rank.
	meta.Steps = append(meta.Steps, "Scoring results...")
	onSite := make(map[string]bool, len(scrape.DomainEmails))
	for _, e := range scrape.DomainEmails {
		onSite[e] = true
	}
	inputs := make([]ScoreInput, len(candidates))
	for i, c := range candidates {
		probe, ok := probeByEmail[c.Email]
		status := SMTPStatusError
		if ok {
			status = probe.Status
		}
		inputs[i] = ScoreInput{
			Email:                  c.Email,
			SMTPStatus:             status,
			PatternWeight:          c.Weight,
			FoundOnWebsite:         onSite[c.Email],
			MatchesWebsitePattern:  scrape.DetectedPattern != "" && scrape.DetectedPattern == c.Pattern,
			MatchesProviderPattern: containsString(intel.PreferredPatterns, c.Pattern),
			HasGravatar:            gravatarHits[c.Email],
			DisifyValid:            disifyHits[c.Email],
			AIRecommended:          aiPick.BestEmail == c.Email,
			HunterConfirmed:        hunterPick != nil && hunterPick.Email == c.Email,
			IsCatchAll:             isCatchAll,
			WebsiteEmailCount:      len(scrape.DomainEmails),
		}
	}
	results := ScoreAndRank(inputs)
	if results == nil {
		results = []ScoredEmail{}
	}

	meta.DurationMS = time.Since(start).Milliseconds()
	f.Logger.WithFields(logrus.Fields{
		"run_id":   meta.RunID,
		"domain":   domain,
		"results":  len(results),
		"duration": meta.DurationMS,
	}).Info("discovery run completed")

	return &FindResponse{Results: results, Meta: meta}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
