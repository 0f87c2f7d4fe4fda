package utils

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"time"
)

// DomainIntel holds everything we learn about a domain's mail setup from DNS.
// Instances are cached by domain and must be treated as immutable once returned.
type DomainIntel struct {
	Domain            string    `json:"domain"`
	MXRecords         []*net.MX `json:"mx_records"`
	PreferredMX       string    `json:"preferred_mx"`
	Provider          string    `json:"provider"`
	PreferredPatterns []string  `json:"preferred_patterns,omitempty"`
	SPFRecord         string    `json:"spf_record,omitempty"`
	HasMX             bool      `json:"has_mx"`
	Error             string    `json:"error,omitempty"`
}

type providerInfo struct {
	name     string
	patterns []string
}

// Known hosted-mail vendors keyed by MX hostname substring. The pattern lists
// are in the vendor's observed preference order.
var knownProviders = []struct {
	substr string
	info   providerInfo
}{
	{"google", providerInfo{"Google Workspace", []string{"first.last", "firstlast", "first"}}},
	{"outlook", providerInfo{"Microsoft 365", []string{"first.last", "flast", "firstlast"}}},
	{"hotmail", providerInfo{"Microsoft 365", []string{"first.last", "flast"}}},
	{"pphosted", providerInfo{"Proofpoint/Microsoft", []string{"first.last", "flast"}}},
	{"zoho", providerInfo{"Zoho", []string{"first.last", "first", "firstlast"}}},
	{"protonmail", providerInfo{"ProtonMail", []string{"first.last", "firstlast", "first"}}},
	{"fastmail", providerInfo{"Fastmail", []string{"first.last", "first"}}},
	{"mimecast", providerInfo{"Mimecast", []string{"first.last", "flast"}}},
	{"barracuda", providerInfo{"Barracuda", []string{"first.last", "flast"}}},
}

// DetectProvider matches an MX hostname against the known-provider table and
// returns the vendor name plus its preferred naming patterns, or "Custom" with
// no patterns when the host is not recognized.
func DetectProvider(mxHost string) (string, []string) {
	host := strings.ToLower(mxHost)
	for _, p := range knownProviders {
		if strings.Contains(host, p.substr) {
			return p.info.name, p.info.patterns
		}
	}
	return "Custom", nil
}

// dnsResolver is the subset of *net.Resolver the intelligence layer needs,
// injectable for tests.
type dnsResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

type DomainIntelligence struct {
	resolver dnsResolver
	cache    *Cache[*DomainIntel]
	timeout  time.Duration
}

func NewDomainIntelligence(cache *Cache[*DomainIntel]) *DomainIntelligence {
	return &DomainIntelligence{
		resolver: net.DefaultResolver,
		cache:    cache,
		timeout:  5 * time.Second,
	}
}

// Lookup resolves MX and SPF records for a domain, fingerprints the provider,
// and caches the result. It never returns an error: DNS failures are reported
// through HasMX=false plus a human-readable Error reason.
func (di *DomainIntelligence) Lookup(ctx context.Context, domain string) *DomainIntel {
	d := strings.ToLower(strings.TrimSpace(domain))
	if cached, ok := di.cache.Get("dns:" + d); ok {
		return cached
	}

	intel := &DomainIntel{Domain: d, Provider: "Unknown"}

	ctx, cancel := context.WithTimeout(ctx, di.timeout)
	defer cancel()

	records, err := di.resolver.LookupMX(ctx, d)
	switch {
	case err != nil:
		intel.Error = describeDNSError(err)
	case len(records) == 0:
		intel.Error = "No MX records found."
	default:
		sort.Slice(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
		intel.MXRecords = records
		intel.PreferredMX = strings.TrimSuffix(records[0].Host, ".")
		intel.HasMX = true
		intel.Provider, intel.PreferredPatterns = DetectProvider(intel.PreferredMX)
	}

	// SPF is advisory; absence or lookup failure is not an error.
	if txts, err := di.resolver.LookupTXT(ctx, d); err == nil {
		for _, txt := range txts {
			if strings.HasPrefix(txt, "v=spf1") {
				intel.SPFRecord = txt
				break
			}
		}
	}

	di.cache.Set("dns:"+d, intel)
	return intel
}

func describeDNSError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return "Domain does not exist."
		}
		if dnsErr.IsTimeout {
			return "DNS lookup timed out."
		}
	}
	return "DNS error: " + err.Error()
}
