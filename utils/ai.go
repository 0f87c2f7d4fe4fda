package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AIAnalysis is the model's pick among the collected candidates. A nil/empty
// BestEmail means the signal is absent.
type AIAnalysis struct {
	BestEmail  string `json:"best_email,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`
	Confidence int    `json:"confidence"`
}

type AIAnalyzeRequest struct {
	FirstName       string
	LastName        string
	Domain          string
	Provider        string
	DetectedPattern string
	SMTPResults     []ProbeResult
	WebsiteEmails   []string
	IsCatchAll      bool
}

// AIAnalyzer re-ranks candidates with an OpenAI chat completion. Disabled
// without an API key; every failure degrades to an empty analysis.
type AIAnalyzer struct {
	apiKey  string
	client  *http.Client
	model   string
	BaseURL string
	logger  *logrus.Entry
}

func NewAIAnalyzer(apiKey string) *AIAnalyzer {
	return &AIAnalyzer{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		model:   "gpt-4o-mini",
		BaseURL: "https://api.openai.com",
		logger:  logrus.WithField("component", "ai_analyzer"),
	}
}

func (a *AIAnalyzer) Enabled() bool {
	return a != nil && a.apiKey != ""
}

func (a *AIAnalyzer) Analyze(ctx context.Context, req AIAnalyzeRequest) AIAnalysis {
	if !a.Enabled() {
		return AIAnalysis{Reasoning: "No OpenAI key configured."}
	}

	payload := map[string]any{
		"model":       a.model,
		"messages":    []map[string]string{{"role": "user", "content": a.buildPrompt(req)}},
		"temperature": 0.1,
		"max_tokens":  200,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return AIAnalysis{}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return AIAnalysis{}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	res, err := a.client.Do(httpReq)
	if err != nil {
		a.logger.Debugf("request failed: %v", err)
		return AIAnalysis{}
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return AIAnalysis{}
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&completion); err != nil || len(completion.Choices) == 0 {
		return AIAnalysis{}
	}

	// The model sometimes wraps the JSON in markdown fences.
	content := completion.Choices[0].Message.Content
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")

	var analysis AIAnalysis
	var parsed struct {
		BestEmail  string `json:"bestEmail"`
		Reasoning  string `json:"reasoning"`
		Confidence int    `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return AIAnalysis{}
	}
	analysis.BestEmail = parsed.BestEmail
	analysis.Reasoning = parsed.Reasoning
	analysis.Confidence = parsed.Confidence
	return analysis
}

func (a *AIAnalyzer) buildPrompt(req AIAnalyzeRequest) string {
	var smtpLines []string
	for _, r := range req.SMTPResults {
		smtpLines = append(smtpLines, fmt.Sprintf("  %s: %s", r.Email, r.Status))
	}
	smtp := "None"
	if len(smtpLines) > 0 {
		smtp = strings.Join(smtpLines, "\n")
	}
	site := "None"
	if len(req.WebsiteEmails) > 0 {
		site = strings.Join(req.WebsiteEmails, ", ")
	}
	provider := req.Provider
	if provider == "" {
		provider = "Unknown"
	}
	pattern := req.DetectedPattern
	if pattern == "" {
		pattern = "None"
	}
	catchAll := "No"
	if req.IsCatchAll {
		catchAll = "Yes"
	}

	return fmt.Sprintf(`You are an expert at finding business email addresses. Given the following data about a person, determine their most likely email address.

Person: %s %s
Company domain: %s
Email provider: %s
Website pattern detected: %s
Catch-all domain: %s

SMTP verification results:
%s

Emails found on company website:
%s

Based on ALL this data, return ONLY a JSON object (no markdown):
{"bestEmail": "most_likely@email.com", "reasoning": "brief explanation", "confidence": 85}

The confidence should be 0-100. If catch-all is true and SMTP shows valid for all, lower your confidence. If SMTP shows only specific emails as valid, those are very reliable. If the website pattern matches a result, boost confidence.`,
		req.FirstName, req.LastName, req.Domain, provider, pattern, catchAll, smtp, site)
}
