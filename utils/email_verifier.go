package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/badoux/checkmail"
)

// Verification statuses for a single address.
const (
	VerifyStatusValid   = "valid"
	VerifyStatusInvalid = "invalid"
	VerifyStatusRisky   = "risky"
	VerifyStatusUnknown = "unknown"
)

// VerifyDetails carries the supporting evidence behind a verdict.
type VerifyDetails struct {
	Domain       string `json:"domain,omitempty"`
	Provider     string `json:"provider,omitempty"`
	MXServer     string `json:"mx_server,omitempty"`
	SMTPCode     int    `json:"smtp_code,omitempty"`
	HasMX        bool   `json:"has_mx"`
	IsCatchAll   bool   `json:"is_catch_all"`
	HasGravatar  bool   `json:"has_gravatar"`
	IsRoleBased  bool   `json:"is_role_based"`
	IsDisposable bool   `json:"is_disposable"`
	WHOIS        string `json:"whois,omitempty"`
}

type VerifyResult struct {
	Email      string        `json:"email"`
	Valid      bool          `json:"valid"`
	Status     string        `json:"status"`
	Reason     string        `json:"reason"`
	Details    VerifyDetails `json:"details"`
	DurationMS int64         `json:"duration_ms"`
}

// EmailVerifier classifies a single existing address: format check, DNS
// intelligence, then the SMTP probe with catch-all and Gravatar lookups run
// concurrently.
type EmailVerifier struct {
	DNS      DomainIntelProvider
	SMTP     SMTPProber
	Gravatar GravatarProber
}

func NewEmailVerifier(dns *DomainIntelligence, smtp *SMTPVerifier, gravatar *GravatarChecker) *EmailVerifier {
	return &EmailVerifier{DNS: dns, SMTP: smtp, Gravatar: gravatar}
}

func (v *EmailVerifier) Verify(ctx context.Context, email string) *VerifyResult {
	start := time.Now()
	normalized := strings.ToLower(strings.TrimSpace(email))
	result := &VerifyResult{Email: normalized, Status: VerifyStatusUnknown}

	if err := checkmail.ValidateFormat(normalized); err != nil {
		result.Status = VerifyStatusInvalid
		result.Reason = "Invalid email format."
		result.DurationMS = time.Since(start).Milliseconds()
		return result
	}

	domain := ExtractDomain(normalized)
	result.Details.Domain = domain
	result.Details.IsRoleBased = IsRoleAddress(normalized)
	result.Details.IsDisposable = IsDisposableDomain(domain)

	intel := v.DNS.Lookup(ctx, domain)
	if !intel.HasMX {
		result.Status = VerifyStatusInvalid
		result.Reason = intel.Error
		if result.Reason == "" {
			result.Reason = "Domain has no mail server."
		}
		result.DurationMS = time.Since(start).Milliseconds()
		return result
	}
	result.Details.HasMX = true
	result.Details.Provider = intel.Provider
	result.Details.MXServer = intel.PreferredMX

	var (
		probes      []ProbeResult
		isCatchAll  bool
		hasGravatar bool
		wg          sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		probes = v.SMTP.VerifyAddresses([]string{normalized}, intel.PreferredMX)
	}()
	go func() {
		defer wg.Done()
		isCatchAll = v.SMTP.IsCatchAll(domain, intel.PreferredMX)
	}()
	go func() {
		defer wg.Done()
		hasGravatar = v.Gravatar.Has(ctx, normalized)
	}()
	wg.Wait()

	result.Details.IsCatchAll = isCatchAll
	result.Details.HasGravatar = hasGravatar

	probe := ProbeResult{Status: SMTPStatusError}
	if len(probes) > 0 {
		probe = probes[0]
	}
	result.Details.SMTPCode = probe.Code

	switch probe.Status {
	case SMTPStatusValid:
		if isCatchAll {
			result.Status = VerifyStatusRisky
			result.Reason = "Email accepted but domain is catch-all - accepts any address."
		} else {
			result.Status = VerifyStatusValid
			result.Reason = "Email exists on the mail server."
		}
	case SMTPStatusInvalid:
		result.Status = VerifyStatusInvalid
		result.Reason = "Email rejected by mail server (mailbox does not exist)."
	default:
		result.Status = VerifyStatusUnknown
		result.Reason = "Could not determine - SMTP returned inconclusive result."
	}
	result.Valid = result.Status == VerifyStatusValid
	result.DurationMS = time.Since(start).Milliseconds()
	return result
}

// BatchVerify verifies emails in fixed-size concurrent waves. Each wave
// finishes before the next starts; results preserve input order.
func (v *EmailVerifier) BatchVerify(ctx context.Context, emails []string, concurrency int) []*VerifyResult {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]*VerifyResult, len(emails))
	for i := 0; i < len(emails); i += concurrency {
		end := i + concurrency
		if end > len(emails) {
			end = len(emails)
		}
		var wg sync.WaitGroup
		for j := i; j < end; j++ {
			j := j
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[j] = v.Verify(ctx, emails[j])
			}()
		}
		wg.Wait()
	}
	return results
}
