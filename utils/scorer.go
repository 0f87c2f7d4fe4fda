package utils

import "sort"

// Confidence tiers.
const (
	ConfidenceVerified = "verified"
	ConfidenceLikely   = "likely"
	ConfidencePossible = "possible"
	ConfidenceLow      = "low"
	ConfidenceInvalid  = "invalid"
)

// Signal point values. Stated as constants for reproducibility; the pattern
// bonus rescale below assumes a maximum raw weight near 83 (top static weight
// plus boosts), so the divisor must be re-derived if these change.
const (
	scoreSMTPValid       = 45
	scoreFoundOnWebsite  = 55
	scoreWebsitePattern  = 50
	scoreStrongPattern   = 10
	scoreProviderPattern = 15
	scoreGravatar        = 15
	scoreDisifyValid     = 20
	scoreAIPick          = 15
	scoreHunterConfirm   = 20
	scoreCatchAllPenalty = -20
)

// ScoreInput is the closed set of signals collected for one candidate.
// Absent external signals are false, never errors.
type ScoreInput struct {
	Email                  string
	SMTPStatus             string
	PatternWeight          int
	FoundOnWebsite         bool
	MatchesWebsitePattern  bool
	MatchesProviderPattern bool
	HasGravatar            bool
	DisifyValid            bool
	AIRecommended          bool
	HunterConfirmed        bool
	IsCatchAll             bool
	WebsiteEmailCount      int
}

// ScoredEmail is a candidate with its fused confidence score, tier, the
// ordered signal tags that fired, and the primary method tag.
type ScoredEmail struct {
	Email      string   `json:"email"`
	Score      int      `json:"score"`
	Confidence string   `json:"confidence"`
	Signals    []string `json:"signals"`
	Method     string   `json:"method"`
}

// ScoreEmail fuses all signals for one candidate into a 0-100 score and tier.
// An SMTP rejection dominates everything: score 0, tier invalid, no other
// signal can rescue the candidate.
func ScoreEmail(in ScoreInput) ScoredEmail {
	if in.SMTPStatus == SMTPStatusInvalid {
		return ScoredEmail{
			Email:      in.Email,
			Score:      0,
			Confidence: ConfidenceInvalid,
			Signals:    []string{"smtp_rejected"},
			Method:     "smtp_rejected",
		}
	}

	score := 0
	var signals []string

	// SMTP error means port 25 was blocked; no penalty either way.
	if in.SMTPStatus == SMTPStatusValid {
		score += scoreSMTPValid
		signals = append(signals, "smtp_verified")
	}

	if in.FoundOnWebsite {
		score += scoreFoundOnWebsite
		signals = append(signals, "found_on_website")
	}
	if in.MatchesWebsitePattern {
		score += scoreWebsitePattern
		signals = append(signals, "website_pattern")
	}
	if in.MatchesWebsitePattern && in.WebsiteEmailCount >= 3 {
		score += scoreStrongPattern
		signals = append(signals, "strong_pattern")
	}

	if in.MatchesProviderPattern {
		score += scoreProviderPattern
		signals = append(signals, "provider_pattern")
	}

	if in.HasGravatar {
		score += scoreGravatar
		signals = append(signals, "gravatar")
	}
	if in.DisifyValid {
		score += scoreDisifyValid
		signals = append(signals, "disify_valid")
	}

	if in.AIRecommended {
		score += scoreAIPick
		signals = append(signals, "ai_pick")
	}
	if in.HunterConfirmed {
		score += scoreHunterConfirm
		signals = append(signals, "hunter_verified")
	}

	// Pattern frequency bonus, rescaled to 3-20 so every candidate keeps a
	// small base score.
	weight := in.PatternWeight
	if weight < 1 {
		weight = 1
	}
	bonus := (weight*20 + 30) / 60 // round(weight/60*20)
	if bonus < 3 {
		bonus = 3
	}
	if bonus > 20 {
		bonus = 20
	}
	score += bonus

	// On a catch-all domain an SMTP acceptance is meaningless.
	if in.IsCatchAll && in.SMTPStatus == SMTPStatusValid {
		score += scoreCatchAllPenalty
		signals = append(signals, "catchall_domain")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var confidence string
	switch {
	case score >= 75:
		confidence = ConfidenceVerified
	case score >= 50:
		confidence = ConfidenceLikely
	case score >= 30:
		confidence = ConfidencePossible
	default:
		confidence = ConfidenceLow
	}

	method := "pattern"
	if len(signals) > 0 {
		method = signals[0]
	}

	return ScoredEmail{
		Email:      in.Email,
		Score:      score,
		Confidence: confidence,
		Signals:    signals,
		Method:     method,
	}
}

// ScoreAndRank scores every candidate, drops the invalid tier, and sorts by
// score descending. The sort is stable, so exact ties keep the generator's
// weight ordering as the natural tie-break.
func ScoreAndRank(inputs []ScoreInput) []ScoredEmail {
	var out []ScoredEmail
	for _, in := range inputs {
		scored := ScoreEmail(in)
		if scored.Confidence == ConfidenceInvalid {
			continue
		}
		out = append(out, scored)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
