package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDNS struct {
	intel map[string]*DomainIntel
}

func (s *stubDNS) Lookup(ctx context.Context, domain string) *DomainIntel {
	if intel, ok := s.intel[domain]; ok {
		return intel
	}
	return &DomainIntel{Domain: domain, Provider: "Unknown", Error: "Domain does not exist."}
}

type stubSMTP struct {
	statuses map[string]ProbeResult
	catchAll bool
}

func (s *stubSMTP) VerifyAddresses(emails []string, mxHost string) []ProbeResult {
	results := make([]ProbeResult, len(emails))
	for i, email := range emails {
		if probe, ok := s.statuses[email]; ok {
			probe.Email = email
			results[i] = probe
		} else {
			results[i] = ProbeResult{Email: email, Status: SMTPStatusUnknown, Code: 450}
		}
	}
	return results
}

func (s *stubSMTP) IsCatchAll(domain, mxHost string) bool { return s.catchAll }

type stubGravatar struct {
	hits map[string]bool
}

func (s *stubGravatar) Has(ctx context.Context, email string) bool { return s.hits[email] }

func (s *stubGravatar) BatchCheck(ctx context.Context, emails []string) map[string]bool {
	results := make(map[string]bool, len(emails))
	for _, e := range emails {
		results[e] = s.hits[e]
	}
	return results
}

func acmeDNS() *stubDNS {
	return &stubDNS{intel: map[string]*DomainIntel{
		"acme.test": {
			Domain:      "acme.test",
			HasMX:       true,
			PreferredMX: "mx1.acme.test",
			Provider:    "Custom",
		},
	}}
}

func TestVerifyInvalidFormat(t *testing.T) {
	v := &EmailVerifier{DNS: acmeDNS(), SMTP: &stubSMTP{}, Gravatar: &stubGravatar{}}

	result := v.Verify(context.Background(), "not-an-email")

	assert.Equal(t, VerifyStatusInvalid, result.Status)
	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid email format.", result.Reason)
}

func TestVerifyUnresolvableDomain(t *testing.T) {
	v := &EmailVerifier{DNS: acmeDNS(), SMTP: &stubSMTP{}, Gravatar: &stubGravatar{}}

	result := v.Verify(context.Background(), "jane@nope.invalid")

	assert.Equal(t, VerifyStatusInvalid, result.Status)
	assert.Equal(t, "Domain does not exist.", result.Reason)
	assert.False(t, result.Details.HasMX)
}

func TestVerifyValid(t *testing.T) {
	v := &EmailVerifier{
		DNS: acmeDNS(),
		SMTP: &stubSMTP{statuses: map[string]ProbeResult{
			"jane.doe@acme.test": {Status: SMTPStatusValid, Code: 250},
		}},
		Gravatar: &stubGravatar{hits: map[string]bool{"jane.doe@acme.test": true}},
	}

	result := v.Verify(context.Background(), " Jane.Doe@ACME.test ")

	assert.Equal(t, VerifyStatusValid, result.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, "jane.doe@acme.test", result.Email)
	assert.Equal(t, 250, result.Details.SMTPCode)
	assert.Equal(t, "mx1.acme.test", result.Details.MXServer)
	assert.True(t, result.Details.HasGravatar)
	assert.False(t, result.Details.IsRoleBased)
	assert.False(t, result.Details.IsDisposable)
}

func TestVerifyCatchAllIsRisky(t *testing.T) {
	v := &EmailVerifier{
		DNS: acmeDNS(),
		SMTP: &stubSMTP{
			statuses: map[string]ProbeResult{
				"jane.doe@acme.test": {Status: SMTPStatusValid, Code: 250},
			},
			catchAll: true,
		},
		Gravatar: &stubGravatar{},
	}

	result := v.Verify(context.Background(), "jane.doe@acme.test")

	assert.Equal(t, VerifyStatusRisky, result.Status)
	assert.False(t, result.Valid, "acceptance on a catch-all proves nothing")
	assert.True(t, result.Details.IsCatchAll)
}

func TestVerifyRejected(t *testing.T) {
	v := &EmailVerifier{
		DNS: acmeDNS(),
		SMTP: &stubSMTP{statuses: map[string]ProbeResult{
			"gone@acme.test": {Status: SMTPStatusInvalid, Code: 550},
		}},
		Gravatar: &stubGravatar{},
	}

	result := v.Verify(context.Background(), "gone@acme.test")

	assert.Equal(t, VerifyStatusInvalid, result.Status)
	assert.Equal(t, 550, result.Details.SMTPCode)
}

func TestVerifyInconclusive(t *testing.T) {
	v := &EmailVerifier{DNS: acmeDNS(), SMTP: &stubSMTP{}, Gravatar: &stubGravatar{}}

	result := v.Verify(context.Background(), "maybe@acme.test")

	assert.Equal(t, VerifyStatusUnknown, result.Status)
	assert.False(t, result.Valid)
}

func TestVerifyFlagsRoleAndDisposable(t *testing.T) {
	dns := &stubDNS{intel: map[string]*DomainIntel{
		"mailinator.com": {Domain: "mailinator.com", HasMX: true, PreferredMX: "mx.mailinator.com", Provider: "Custom"},
	}}
	v := &EmailVerifier{DNS: dns, SMTP: &stubSMTP{}, Gravatar: &stubGravatar{}}

	result := v.Verify(context.Background(), "info@mailinator.com")

	assert.True(t, result.Details.IsRoleBased)
	assert.True(t, result.Details.IsDisposable)
}

func TestBatchVerifyPreservesOrder(t *testing.T) {
	v := &EmailVerifier{
		DNS: acmeDNS(),
		SMTP: &stubSMTP{statuses: map[string]ProbeResult{
			"a@acme.test": {Status: SMTPStatusValid, Code: 250},
			"b@acme.test": {Status: SMTPStatusInvalid, Code: 550},
		}},
		Gravatar: &stubGravatar{},
	}

	emails := []string{"a@acme.test", "b@acme.test", "c@acme.test", "bad-format", "d@acme.test"}
	results := v.BatchVerify(context.Background(), emails, 2)

	require.Len(t, results, len(emails))
	for i, email := range emails {
		require.NotNil(t, results[i])
		if email != "bad-format" {
			assert.Equal(t, email, results[i].Email)
		}
	}
	assert.Equal(t, VerifyStatusValid, results[0].Status)
	assert.Equal(t, VerifyStatusInvalid, results[1].Status)
	assert.Equal(t, VerifyStatusUnknown, results[2].Status)
	assert.Equal(t, VerifyStatusInvalid, results[3].Status)
}
