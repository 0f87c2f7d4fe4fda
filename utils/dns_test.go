package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mx      []*net.MX
	mxErr   error
	txt     []string
	txtErr  error
	mxCalls int
}

func (f *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	f.mxCalls++
	return f.mx, f.mxErr
}

func (f *fakeResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	return f.txt, f.txtErr
}

func newTestIntelligence(r dnsResolver) *DomainIntelligence {
	return &DomainIntelligence{
		resolver: r,
		cache:    NewCache[*DomainIntel](time.Minute),
		timeout:  time.Second,
	}
}

func TestDetectProvider(t *testing.T) {
	cases := []struct {
		mx       string
		provider string
	}{
		{"aspmx.l.google.com", "Google Workspace"},
		{"acme-test.mail.protection.outlook.com", "Microsoft 365"},
		{"mx.zoho.com", "Zoho"},
		{"mail.protonmail.ch", "ProtonMail"},
		{"mx1.acme.test", "Custom"},
	}
	for _, tc := range cases {
		provider, _ := DetectProvider(tc.mx)
		assert.Equal(t, tc.provider, provider, tc.mx)
	}

	_, patterns := DetectProvider("ASPMX.L.GOOGLE.COM")
	assert.Equal(t, []string{"first.last", "firstlast", "first"}, patterns, "matching is case-insensitive")

	_, patterns = DetectProvider("mx1.acme.test")
	assert.Nil(t, patterns)
}

func TestLookupSortsByPreference(t *testing.T) {
	di := newTestIntelligence(&fakeResolver{
		mx: []*net.MX{
			{Host: "backup.acme.test.", Pref: 20},
			{Host: "aspmx.l.google.com.", Pref: 1},
		},
		txt: []string{"google-site-verification=abc", "v=spf1 include:_spf.google.com ~all"},
	})

	intel := di.Lookup(context.Background(), "Acme.Test")

	assert.True(t, intel.HasMX)
	assert.Equal(t, "acme.test", intel.Domain)
	assert.Equal(t, "aspmx.l.google.com", intel.PreferredMX, "lowest preference wins, trailing dot trimmed")
	assert.Equal(t, "Google Workspace", intel.Provider)
	assert.Equal(t, []string{"first.last", "firstlast", "first"}, intel.PreferredPatterns)
	assert.Equal(t, "v=spf1 include:_spf.google.com ~all", intel.SPFRecord)
	assert.Empty(t, intel.Error)
}

func TestLookupDomainNotFound(t *testing.T) {
	di := newTestIntelligence(&fakeResolver{
		mxErr:  &net.DNSError{Err: "no such host", IsNotFound: true},
		txtErr: &net.DNSError{Err: "no such host", IsNotFound: true},
	})

	intel := di.Lookup(context.Background(), "nope.invalid")

	assert.False(t, intel.HasMX)
	assert.Equal(t, "Domain does not exist.", intel.Error)
	assert.Equal(t, "Unknown", intel.Provider)
}

func TestLookupTimeout(t *testing.T) {
	di := newTestIntelligence(&fakeResolver{
		mxErr: &net.DNSError{Err: "i/o timeout", IsTimeout: true},
	})

	intel := di.Lookup(context.Background(), "slow.test")

	assert.False(t, intel.HasMX)
	assert.Equal(t, "DNS lookup timed out.", intel.Error)
}

func TestLookupNoMXRecords(t *testing.T) {
	di := newTestIntelligence(&fakeResolver{})

	intel := di.Lookup(context.Background(), "web-only.test")

	assert.False(t, intel.HasMX)
	assert.Equal(t, "No MX records found.", intel.Error)
}

func TestLookupCaches(t *testing.T) {
	resolver := &fakeResolver{
		mx: []*net.MX{{Host: "mx1.acme.test.", Pref: 10}},
	}
	di := newTestIntelligence(resolver)

	first := di.Lookup(context.Background(), "acme.test")
	second := di.Lookup(context.Background(), "ACME.test")

	require.Equal(t, 1, resolver.mxCalls, "second lookup must hit the cache")
	assert.Same(t, first, second)
}

func TestLookupSPFFailureIsNotFatal(t *testing.T) {
	di := newTestIntelligence(&fakeResolver{
		mx:     []*net.MX{{Host: "mx1.acme.test.", Pref: 10}},
		txtErr: &net.DNSError{Err: "refused"},
	})

	intel := di.Lookup(context.Background(), "acme.test")

	assert.True(t, intel.HasMX)
	assert.Empty(t, intel.SPFRecord)
}
