package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// HunterEmail is one address Hunter knows for a domain.
type HunterEmail struct {
	Email      string `json:"email"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// HunterDomainSearch is the pattern and address inventory Hunter reports for
// a domain.
type HunterDomainSearch struct {
	Pattern      string        `json:"pattern,omitempty"`
	Emails       []HunterEmail `json:"emails"`
	Organization string        `json:"organization,omitempty"`
}

// HunterFinder is Hunter's single best guess for a person.
type HunterFinder struct {
	Email    string `json:"email"`
	Score    int    `json:"score"`
	Position string `json:"position,omitempty"`
}

// HunterClient wraps the Hunter.io enrichment API. Disabled without a key;
// any failure returns nil, which callers must treat as "signal absent".
type HunterClient struct {
	apiKey  string
	client  *http.Client
	BaseURL string
}

func NewHunterClient(apiKey string) *HunterClient {
	return &HunterClient{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 8 * time.Second},
		BaseURL: "https://api.hunter.io",
	}
}

func (h *HunterClient) Enabled() bool {
	return h != nil && h.apiKey != ""
}

func (h *HunterClient) DomainSearch(ctx context.Context, domain string) *HunterDomainSearch {
	if !h.Enabled() {
		return nil
	}

	endpoint := h.BaseURL + "/v2/domain-search?domain=" + url.QueryEscape(domain) + "&api_key=" + url.QueryEscape(h.apiKey)
	var payload struct {
		Data struct {
			Pattern      string `json:"pattern"`
			Organization string `json:"organization"`
			Emails       []struct {
				Value      string `json:"value"`
				Type       string `json:"type"`
				Confidence int    `json:"confidence"`
				FirstName  string `json:"first_name"`
				LastName   string `json:"last_name"`
			} `json:"emails"`
		} `json:"data"`
	}
	if !h.getJSON(ctx, endpoint, &payload) {
		return nil
	}

	result := &HunterDomainSearch{
		Pattern:      payload.Data.Pattern,
		Organization: payload.Data.Organization,
	}
	for _, e := range payload.Data.Emails {
		result.Emails = append(result.Emails, HunterEmail{
			Email:      e.Value,
			Type:       e.Type,
			Confidence: e.Confidence,
			FirstName:  e.FirstName,
			LastName:   e.LastName,
		})
	}
	return result
}

func (h *HunterClient) EmailFinder(ctx context.Context, firstName, lastName, domain string) *HunterFinder {
	if !h.Enabled() {
		return nil
	}

	endpoint := h.BaseURL + "/v2/email-finder?domain=" + url.QueryEscape(domain) +
		"&first_name=" + url.QueryEscape(firstName) +
		"&last_name=" + url.QueryEscape(lastName) +
		"&api_key=" + url.QueryEscape(h.apiKey)
	var payload struct {
		Data struct {
			Email    string `json:"email"`
			Score    int    `json:"score"`
			Position string `json:"position"`
		} `json:"data"`
	}
	if !h.getJSON(ctx, endpoint, &payload) {
		return nil
	}
	if payload.Data.Email == "" {
		return nil
	}
	return &HunterFinder{
		Email:    payload.Data.Email,
		Score:    payload.Data.Score,
		Position: payload.Data.Position,
	}
}

func (h *HunterClient) getJSON(ctx context.Context, endpoint string, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	res, err := h.client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return false
	}
	return json.NewDecoder(res.Body).Decode(out) == nil
}
