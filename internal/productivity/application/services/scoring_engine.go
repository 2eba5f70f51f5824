package services

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
)

const (
	BaseScore = 50

	// VerboseDescriptionLength is the character count a description must
	// exceed to earn the verbosity bonus.
	VerboseDescriptionLength = 100
	VerbosityBonus           = 10

	// UnrecognizedPriorityBonus applies to any priority outside the known tiers.
	UnrecognizedPriorityBonus = 5
)

// UrgencyBand awards Bonus when a task is due within Days days.
type UrgencyBand struct {
	Days  int
	Bonus int
}

// UrgencyBands are checked in order; the first matching band wins. Overdue
// tasks fall in the first band.
var UrgencyBands = []UrgencyBand{
	{Days: 1, Bonus: 30},
	{Days: 3, Bonus: 20},
	{Days: 7, Bonus: 10},
}

var priorityBonus = map[value_objects.Priority]int{
	value_objects.PriorityHigh:   25,
	value_objects.PriorityMedium: 15,
	value_objects.PriorityLow:    5,
}

// ScoreBreakdown itemizes how a score was reached.
type ScoreBreakdown struct {
	Base          int  `json:"base"`
	Urgency       int  `json:"urgency"`
	DaysUntilDue  *int `json:"days_until_due,omitempty"`
	Priority      int  `json:"priority"`
	Verbosity     int  `json:"verbosity"`
	Total         int  `json:"total"`
	Score         int  `json:"score"`
	CappedAtLimit bool `json:"capped"`
}

// ScoringEngine computes the AI score of a task. It is deterministic for a
// given input and clock reading.
type ScoringEngine struct {
	now func() time.Time
}

// NewScoringEngine creates an engine that reads the wall clock.
func NewScoringEngine() *ScoringEngine {
	return NewScoringEngineWithClock(time.Now)
}

// NewScoringEngineWithClock creates an engine with a custom clock.
func NewScoringEngineWithClock(now func() time.Time) *ScoringEngine {
	if now == nil {
		now = time.Now
	}
	return &ScoringEngine{now: now}
}

// Score implements task.Scorer.
func (e *ScoringEngine) Score(input task.ScoreInput) int {
	return e.Explain(input).Score
}

// Explain scores the input and reports each contribution. The sum is never
// below BaseScore, so only the upper bound needs clamping.
func (e *ScoringEngine) Explain(input task.ScoreInput) ScoreBreakdown {
	b := ScoreBreakdown{Base: BaseScore}

	if input.DueDate != nil {
		days := DaysUntil(*input.DueDate, e.now())
		b.DaysUntilDue = &days
		b.Urgency = urgencyBonus(days)
	}

	b.Priority = PriorityBonus(input.Priority)

	if utf8.RuneCountInString(input.Description) > VerboseDescriptionLength {
		b.Verbosity = VerbosityBonus
	}

	b.Total = b.Base + b.Urgency + b.Priority + b.Verbosity
	b.Score = b.Total
	if b.Score > task.MaxScore {
		b.Score = task.MaxScore
		b.CappedAtLimit = true
	}
	return b
}

// DaysUntil returns the number of days from now until due, rounded up.
// Past due dates yield zero or negative values.
func DaysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// PriorityBonus returns the bonus for a priority tier.
func PriorityBonus(p value_objects.Priority) int {
	if bonus, ok := priorityBonus[p]; ok {
		return bonus
	}
	return UnrecognizedPriorityBonus
}

func urgencyBonus(days int) int {
	for _, band := range UrgencyBands {
		if days <= band.Days {
			return band.Bonus
		}
	}
	return 0
}
