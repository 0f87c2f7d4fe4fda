package utils

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// GravatarChecker tests whether an address has a public profile image. Any
// failure collapses to false: the signal is advisory, never an error.
type GravatarChecker struct {
	client  *http.Client
	BaseURL string
}

func NewGravatarChecker() *GravatarChecker {
	return &GravatarChecker{
		client:  &http.Client{Timeout: 4 * time.Second},
		BaseURL: "https://gravatar.com",
	}
}

func (g *GravatarChecker) Has(ctx context.Context, email string) bool {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	hash := hex.EncodeToString(sum[:])

	req, err := http.NewRequestWithContext(ctx, http.MethodHead,
		fmt.Sprintf("%s/avatar/%s?d=404&s=1", g.BaseURL, hash), nil)
	if err != nil {
		return false
	}
	res, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK
}

// BatchCheck probes emails five at a time and maps each to its result.
func (g *GravatarChecker) BatchCheck(ctx context.Context, emails []string) map[string]bool {
	results := make(map[string]bool, len(emails))
	hits := make([]bool, len(emails))

	for i := 0; i < len(emails); i += 5 {
		end := i + 5
		if end > len(emails) {
			end = len(emails)
		}
		grp, gctx := errgroup.WithContext(ctx)
		for j := i; j < end; j++ {
			j := j
			grp.Go(func() error {
				hits[j] = g.Has(gctx, emails[j])
				return nil
			})
		}
		_ = grp.Wait()
	}
	for i, email := range emails {
		results[email] = hits[i]
	}
	return results
}

// DisifyChecker queries the DISIFY free API for an SMTP-independent
// format/disposable/DNS verdict. Checks run sequentially behind a rate
// limiter so we stay a polite client of the free endpoint.
type DisifyChecker struct {
	client  *http.Client
	limiter *rate.Limiter
	BaseURL string
}

func NewDisifyChecker() *DisifyChecker {
	return &DisifyChecker{
		client:  &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		BaseURL: "https://disify.com",
	}
}

type disifyResponse struct {
	Format     *bool `json:"format"`
	Disposable *bool `json:"disposable"`
	DNS        *bool `json:"dns"`
}

// Check returns (valid, ok). ok is false when the API was unreachable, which
// callers must treat as "signal absent".
func (d *DisifyChecker) Check(ctx context.Context, email string) (bool, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.BaseURL+"/api/email/"+url.PathEscape(email), nil)
	if err != nil {
		return false, false
	}
	req.Header.Set("User-Agent", "FindAnyMail/2.0")

	res, err := d.client.Do(req)
	if err != nil {
		return false, false
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return false, false
	}

	var body disifyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, false
	}

	// Missing fields default to the permissive reading.
	valid := (body.Format == nil || *body.Format) &&
		(body.Disposable == nil || !*body.Disposable) &&
		(body.DNS == nil || *body.DNS)
	return valid, true
}

// BatchCheck verifies at most maxChecks addresses sequentially. Addresses the
// API could not be reached for are omitted from the map.
func (d *DisifyChecker) BatchCheck(ctx context.Context, emails []string, maxChecks int) map[string]bool {
	results := make(map[string]bool)
	if len(emails) > maxChecks {
		emails = emails[:maxChecks]
	}
	for _, email := range emails {
		if err := d.limiter.Wait(ctx); err != nil {
			break
		}
		if valid, ok := d.Check(ctx, email); ok {
			results[email] = valid
		}
	}
	return results
}

// IsRoleAddress reports whether the local part is a generic mailbox
// (info@, support@, ...) rather than a personal address.
func IsRoleAddress(email string) bool {
	local := strings.ToLower(strings.Split(email, "@")[0])
	return roleAddresses[local]
}

// IsDisposableDomain reports whether the domain belongs to a known
// throwaway-address provider.
func IsDisposableDomain(domain string) bool {
	return disposableDomains[strings.ToLower(domain)]
}

var disposableDomains = func() map[string]bool {
	domains := make(map[string]bool)
	for _, d := range strings.Split(disposableDomainList, "\n") {
		if d = strings.TrimSpace(d); d != "" {
			domains[d] = true
		}
	}
	return domains
}()

const disposableDomainList = `
mailinator.com
tempmail.org
10minutemail.com
guerrillamail.com
trashmail.com
temp-mail.org
yopmail.com
maildrop.cc
dispostable.com
fakeinbox.com
throwawaymail.com
mailnesia.com
getairmail.com
mytemp.email
temp-mail.io
sharklasers.com
guerrillamail.net
guerrillamail.org
spam4.me
mailcatch.com
mintemail.com
spamgourmet.com
mytrashmail.com
tempinbox.com
discard.email
mailsac.com
moakt.com
tempr.email
burnermail.io
emailondeck.com
`
