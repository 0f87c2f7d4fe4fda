package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var domainShape = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.[a-zA-Z]{2,}$`)

// IsDomain reports whether the input already looks like a domain rather than
// a company name.
func IsDomain(input string) bool {
	return domainShape.MatchString(strings.TrimSpace(input))
}

// CompanyInfo is the resolution of a company name to its primary domain.
// An empty Domain means the name could not be resolved.
type CompanyInfo struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
	Logo   string `json:"logo,omitempty"`
}

// DomainResolver maps company names to domains via the Clearbit autocomplete
// endpoint (free, no key). Failures resolve to an empty CompanyInfo.
type DomainResolver struct {
	client  *http.Client
	cache   *Cache[*CompanyInfo]
	BaseURL string
}

func NewDomainResolver(cache *Cache[*CompanyInfo]) *DomainResolver {
	return &DomainResolver{
		client:  &http.Client{Timeout: 5 * time.Second},
		cache:   cache,
		BaseURL: "https://autocomplete.clearbit.com",
	}
}

func (r *DomainResolver) Resolve(ctx context.Context, companyName string) *CompanyInfo {
	query := strings.ToLower(strings.TrimSpace(companyName))
	if query == "" {
		return &CompanyInfo{}
	}
	if cached, ok := r.cache.Get("company:" + query); ok {
		return cached
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.BaseURL+"/v1/companies/suggest?query="+url.QueryEscape(query), nil)
	if err != nil {
		return &CompanyInfo{}
	}
	req.Header.Set("Accept", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return &CompanyInfo{}
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return &CompanyInfo{}
	}

	var suggestions []struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
		Logo   string `json:"logo"`
	}
	if err := json.NewDecoder(res.Body).Decode(&suggestions); err != nil || len(suggestions) == 0 {
		return &CompanyInfo{}
	}

	info := &CompanyInfo{
		Domain: suggestions[0].Domain,
		Name:   suggestions[0].Name,
		Logo:   suggestions[0].Logo,
	}
	r.cache.Set("company:"+query, info)
	return info
}
