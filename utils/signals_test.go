package utils

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gravatarHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func TestGravatarHas(t *testing.T) {
	known := gravatarHash("jane.doe@acme.test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "404", r.URL.Query().Get("d"))
		if strings.Contains(r.URL.Path, known) {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGravatarChecker()
	g.BaseURL = srv.URL

	assert.True(t, g.Has(context.Background(), "Jane.Doe@acme.test "), "hash input is trimmed and lower-cased")
	assert.False(t, g.Has(context.Background(), "nobody@acme.test"))
}

func TestGravatarBatchCheck(t *testing.T) {
	known := gravatarHash("jane.doe@acme.test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, known) {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGravatarChecker()
	g.BaseURL = srv.URL

	emails := []string{
		"jane.doe@acme.test", "a@acme.test", "b@acme.test",
		"c@acme.test", "d@acme.test", "e@acme.test", "f@acme.test",
	}
	results := g.BatchCheck(context.Background(), emails)

	require.Len(t, results, len(emails))
	assert.True(t, results["jane.doe@acme.test"])
	assert.False(t, results["a@acme.test"])
	assert.False(t, results["f@acme.test"])
}

func TestGravatarUnreachable(t *testing.T) {
	g := NewGravatarChecker()
	g.BaseURL = "http://127.0.0.1:1"

	assert.False(t, g.Has(context.Background(), "jane.doe@acme.test"))
}

func newTestDisify(handler http.HandlerFunc) (*DisifyChecker, *httptest.Server) {
	srv := httptest.NewServer(handler)
	d := NewDisifyChecker()
	d.BaseURL = srv.URL
	return d, srv
}

func TestDisifyCheck(t *testing.T) {
	d, srv := newTestDisify(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "good@acme.test"):
			fmt.Fprint(w, `{"format":true,"disposable":false,"dns":true}`)
		case strings.Contains(r.URL.Path, "throwaway@mailinator.com"):
			fmt.Fprint(w, `{"format":true,"disposable":true,"dns":true}`)
		case strings.Contains(r.URL.Path, "dead@acme.test"):
			fmt.Fprint(w, `{"format":true,"disposable":false,"dns":false}`)
		default:
			fmt.Fprint(w, `{"format":false}`)
		}
	})
	defer srv.Close()

	ctx := context.Background()

	valid, ok := d.Check(ctx, "good@acme.test")
	assert.True(t, ok)
	assert.True(t, valid)

	valid, ok = d.Check(ctx, "throwaway@mailinator.com")
	assert.True(t, ok)
	assert.False(t, valid, "disposable addresses are not valid")

	valid, ok = d.Check(ctx, "dead@acme.test")
	assert.True(t, ok)
	assert.False(t, valid, "failed DNS is not valid")

	valid, ok = d.Check(ctx, "garbage")
	assert.True(t, ok)
	assert.False(t, valid)
}

func TestDisifyCheckMissingFieldsArePermissive(t *testing.T) {
	d, srv := newTestDisify(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	defer srv.Close()

	valid, ok := d.Check(context.Background(), "whatever@acme.test")
	assert.True(t, ok)
	assert.True(t, valid)
}

func TestDisifyCheckAPIFailure(t *testing.T) {
	d, srv := newTestDisify(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	defer srv.Close()

	_, ok := d.Check(context.Background(), "good@acme.test")
	assert.False(t, ok, "API failure means signal absent, not invalid")
}

func TestDisifyBatchCheckCapsAndOmitsFailures(t *testing.T) {
	var calls int
	d, srv := newTestDisify(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if strings.Contains(r.URL.Path, "flaky@acme.test") {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"format":true,"disposable":false,"dns":true}`)
	})
	defer srv.Close()

	emails := []string{"a@acme.test", "flaky@acme.test", "b@acme.test", "c@acme.test"}
	results := d.BatchCheck(context.Background(), emails, 3)

	assert.Equal(t, 3, calls, "maxChecks bounds the API traffic")
	assert.Len(t, results, 2, "unreachable checks are omitted")
	assert.True(t, results["a@acme.test"])
	assert.True(t, results["b@acme.test"])
	_, present := results["flaky@acme.test"]
	assert.False(t, present)
}

func TestIsRoleAddress(t *testing.T) {
	assert.True(t, IsRoleAddress("info@acme.test"))
	assert.True(t, IsRoleAddress("SUPPORT@acme.test"))
	assert.False(t, IsRoleAddress("jane.doe@acme.test"))
}

func TestIsDisposableDomain(t *testing.T) {
	assert.True(t, IsDisposableDomain("mailinator.com"))
	assert.True(t, IsDisposableDomain("YOPmail.com"))
	assert.False(t, IsDisposableDomain("acme.test"))
}
