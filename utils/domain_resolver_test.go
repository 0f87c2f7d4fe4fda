package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDomain(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"acme.test", true},
		{"sub-brand.co", true},
		{" acme.test ", true},
		{"Acme Inc", false},
		{"acme", false},
		{"", false},
		{".test", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsDomain(tc.input), "%q", tc.input)
	}
}

func TestResolveCompanyName(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/v1/companies/suggest", r.URL.Path)
		assert.Equal(t, "acme corporation", r.URL.Query().Get("query"))
		fmt.Fprint(w, `[{"name":"Acme Corporation","domain":"acme.test","logo":"https://logo.test/acme.png"},
			{"name":"Acme Subsidiary","domain":"sub.acme.test"}]`)
	}))
	defer srv.Close()

	r := NewDomainResolver(NewCache[*CompanyInfo](time.Minute))
	r.BaseURL = srv.URL

	info := r.Resolve(context.Background(), " Acme Corporation ")
	require.NotNil(t, info)
	assert.Equal(t, "acme.test", info.Domain, "first suggestion wins")
	assert.Equal(t, "Acme Corporation", info.Name)

	// Second resolution of the same name comes from cache.
	again := r.Resolve(context.Background(), "acme corporation")
	assert.Equal(t, 1, requests)
	assert.Equal(t, info.Domain, again.Domain)
}

func TestResolveNoSuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	r := NewDomainResolver(NewCache[*CompanyInfo](time.Minute))
	r.BaseURL = srv.URL

	info := r.Resolve(context.Background(), "ghost company")
	require.NotNil(t, info)
	assert.Empty(t, info.Domain)
}

func TestResolveAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewDomainResolver(NewCache[*CompanyInfo](time.Minute))
	r.BaseURL = srv.URL

	info := r.Resolve(context.Background(), "acme")
	require.NotNil(t, info)
	assert.Empty(t, info.Domain)
}

func TestResolveEmptyInput(t *testing.T) {
	r := NewDomainResolver(NewCache[*CompanyInfo](time.Minute))
	info := r.Resolve(context.Background(), "   ")
	require.NotNil(t, info)
	assert.Empty(t, info.Domain)
}
