package utils

import (
	"context"
	"fmt"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// MaxBulkRows caps one bulk discovery request.
const MaxBulkRows = 500

// BulkRow is one lookup request in a bulk run. Domain and Company are
// accepted as aliases for DomainOrCompany so exported sheets map cleanly.
type BulkRow struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DomainOrCompany string `json:"domain_or_company"`
	Domain          string `json:"domain,omitempty"`
	Company         string `json:"company,omitempty"`
}

func (r BulkRow) target() string {
	if r.DomainOrCompany != "" {
		return r.DomainOrCompany
	}
	if r.Domain != "" {
		return r.Domain
	}
	return r.Company
}

// BulkRowResult is the per-row outcome: the best candidate plus the top
// alternatives, or an isolated error.
type BulkRowResult struct {
	FirstName  string        `json:"first_name"`
	LastName   string        `json:"last_name"`
	Target     string        `json:"target"`
	Email      string        `json:"email"`
	Confidence string        `json:"confidence"`
	Score      int           `json:"score"`
	Method     string        `json:"method"`
	AllResults []ScoredEmail `json:"all_results,omitempty"`
	Meta       *FindMeta     `json:"meta,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// EmailFinder is the orchestrator contract the bulk controller drives.
type EmailFinder interface {
	FindEmail(ctx context.Context, req FindRequest) *FindResponse
}

// BulkProcessor runs the discovery pipeline over many rows with a fixed
// worker cap. Each worker writes only its own result slot, so output order
// always matches input order, and a failing row never disturbs its siblings.
type BulkProcessor struct {
	Finder      EmailFinder
	Concurrency int
	Logger      *logrus.Entry

	// OnProgress, when set, is invoked after each row completes with the
	// number of completed rows, the total, and that row's result.
	OnProgress func(completed, total int, result *BulkRowResult)
}

func NewBulkProcessor(finder EmailFinder, concurrency int) *BulkProcessor {
	if concurrency < 1 {
		concurrency = 10
	}
	return &BulkProcessor{
		Finder:      finder,
		Concurrency: concurrency,
		Logger:      logrus.WithField("component", "bulk"),
	}
}

func (p *BulkProcessor) Process(ctx context.Context, rows []BulkRow) []*BulkRowResult {
	results := make([]*BulkRowResult, len(rows))
	if len(rows) == 0 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var mu sync.Mutex
	completed := 0
	finish := func(i int, result *BulkRowResult) {
		results[i] = result
		if p.OnProgress == nil {
			return
		}
		mu.Lock()
		completed++
		p.OnProgress(completed, len(rows), result)
		mu.Unlock()
	}

	workers := p.Concurrency
	if workers > len(rows) {
		workers = len(rows)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				finish(i, p.processRow(ctx, rows[i]))
			}
		}()
	}

	for i := range rows {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// processRow converts any failure, including a panic inside the pipeline,
// into that row's own error entry.
func (p *BulkProcessor) processRow(ctx context.Context, row BulkRow) (result *BulkRowResult) {
	result = &BulkRowResult{
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Target:    row.target(),
	}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("bulk row panicked: %v", r)
			sentry.CaptureException(err)
			p.Logger.WithField("target", row.target()).Error(err)
			result.Confidence = "error"
			result.Method = "error"
			result.Error = err.Error()
		}
	}()

	response := p.Finder.FindEmail(ctx, FindRequest{
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		DomainOrCompany: row.target(),
	})
	result.Meta = &response.Meta
	if response.Meta.Error != "" {
		result.Confidence = "error"
		result.Method = "error"
		result.Error = response.Meta.Error
		return result
	}

	if len(response.Results) > 0 {
		best := response.Results[0]
		result.Email = best.Email
		result.Confidence = best.Confidence
		result.Score = best.Score
		result.Method = best.Method
		top := response.Results
		if len(top) > 5 {
			top = top[:5]
		}
		result.AllResults = top
	} else {
		result.Confidence = "none"
	}
	return result
}
