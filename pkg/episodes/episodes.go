// Package episodes cross-checks the episode counters reported by the API
// against the count implied by the premiere date. The calendar feed often
// lags a week or misreports short shows as finished.
package episodes

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/yumemi1/animeposter/pkg/bangumi"
	"github.com/yumemi1/animeposter/pkg/logging"
)

// Strategy records which counter a Verdict ended up trusting.
type Strategy string

const (
	StrategyReported   Strategy = "reported"
	StrategyCalculated Strategy = "calculated"
)

// Issue is one detected contradiction between the two counters.
type Issue string

const (
	IssueZeroEpisodes        Issue = "zero_episodes"
	IssueProgressLag         Issue = "progress_lag"
	IssueProgressAhead       Issue = "progress_ahead"
	IssueCompletionMisjudged Issue = "completion_misjudged"
)

// Verdict is the outcome of validating one subject's episode progress.
type Verdict struct {
	Reported   int
	Calculated int
	// Effective is the count callers should display.
	Effective  int
	Strategy   Strategy
	Confidence float64
	Issues     []Issue
}

const (
	// Shows longer than this are long-runners with irregular scheduling;
	// the weekly calculation does not apply to them.
	maxValidatableEps = 50
	maxAge            = 3 * 365 * 24 * time.Hour
	minRuntime        = 14 * 24 * time.Hour
)

// Validator validates episode progress for calendar subjects.
type Validator struct {
	log zerolog.Logger
}

func NewValidator() *Validator {
	return &Validator{log: logging.GetLogger("episodes")}
}

// ShouldValidate reports whether the weekly calculation is meaningful for
// this subject. Long-runners, very old shows and shows less than two weeks
// into their run are skipped.
func (v *Validator) ShouldValidate(s *bangumi.Subject, now time.Time) bool {
	if s.EpsCount > maxValidatableEps {
		return false
	}
	premiere, ok := premiereDate(s)
	if !ok {
		return false
	}
	age := now.Sub(premiere)
	return age >= minRuntime && age <= maxAge
}

// Validate compares the reported counter with the calculated one and picks
// the more plausible of the two.
func (v *Validator) Validate(s *bangumi.Subject, now time.Time) Verdict {
	verdict := Verdict{
		Reported:   s.Eps,
		Effective:  s.Eps,
		Strategy:   StrategyReported,
		Confidence: 1.0,
	}
	if !v.ShouldValidate(s, now) {
		return verdict
	}
	verdict.Calculated = calculatedEpisodes(s, now)

	switch {
	case verdict.Reported == 0 && verdict.Calculated >= 1:
		verdict.Issues = append(verdict.Issues, IssueZeroEpisodes)
	case verdict.Calculated-verdict.Reported >= 2:
		verdict.Issues = append(verdict.Issues, IssueProgressLag)
	case verdict.Reported-verdict.Calculated >= 3:
		verdict.Issues = append(verdict.Issues, IssueProgressAhead)
	}
	if s.EpsCount > 0 && verdict.Reported >= s.EpsCount && verdict.Calculated < s.EpsCount {
		verdict.Issues = append(verdict.Issues, IssueCompletionMisjudged)
	}

	if len(verdict.Issues) > 0 {
		verdict.Effective = verdict.Calculated
		verdict.Strategy = StrategyCalculated
		verdict.Confidence = 1.0 - 0.2*float64(len(verdict.Issues))
		if verdict.Confidence < 0.1 {
			verdict.Confidence = 0.1
		}
		v.log.Debug().
			Str("title", s.Title()).
			Int("reported", verdict.Reported).
			Int("calculated", verdict.Calculated).
			Interface("issues", verdict.Issues).
			Msg("episode counter corrected")
	}
	return verdict
}

// calculatedEpisodes derives the current episode number from elapsed weeks
// since the premiere, assuming a weekly schedule, capped at the total count.
func calculatedEpisodes(s *bangumi.Subject, now time.Time) int {
	premiere, ok := premiereDate(s)
	if !ok {
		return 0
	}
	weeks := int(now.Sub(premiere)/(7*24*time.Hour)) + 1
	if weeks < 0 {
		return 0
	}
	if s.EpsCount > 0 && weeks > s.EpsCount {
		return s.EpsCount
	}
	return weeks
}

func premiereDate(s *bangumi.Subject) (time.Time, bool) {
	for _, d := range []string{s.Date, s.AirDate} {
		if d == "" {
			continue
		}
		if t, err := time.Parse("2006-01-02", d); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
