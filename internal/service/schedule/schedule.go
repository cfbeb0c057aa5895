// Package schedule derives the shared incubation timeline of a session.
//
// A session mixes species with different incubation lengths but has a single
// countdown anchored on the longest one. Shorter batches are inserted later so
// every batch hatches on the same final day. Every function here is a pure
// function of the session and an explicit "today"; nothing is cached.
package schedule

import (
	"time"

	"github.com/mamadbah2/incubator/internal/domain/models"
)

// Status classifies a batch relative to the current session day.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActionDue Status = "action_due"
	StatusInserted  Status = "inserted"
)

const day = 24 * time.Hour

// MaxIncubationDays is the longest incubation length among the session's
// batches, or 0 for a session without batches.
func MaxIncubationDays(s models.IncubationSession) int {
	longest := 0
	for _, b := range s.Batches {
		if d := b.Species.IncubationDays(); d > longest {
			longest = d
		}
	}
	return longest
}

// FinalHatchDate is the day every batch of the session hatches.
func FinalHatchDate(s models.IncubationSession) time.Time {
	return models.DateOf(s.StartDate).AddDate(0, 0, MaxIncubationDays(s))
}

// CurrentSessionDay returns the 1-based day number of today; the start date is day 1.
func CurrentSessionDay(s models.IncubationSession, today time.Time) int {
	return daysBetween(s.StartDate, today) + 1
}

// InsertionDay is the session day on which the batch's eggs go in.
func InsertionDay(b models.Batch, s models.IncubationSession) int {
	return MaxIncubationDays(s) - b.Species.IncubationDays() + 1
}

// InsertionDate is the calendar date matching InsertionDay.
func InsertionDate(b models.Batch, s models.IncubationSession) time.Time {
	return models.DateOf(s.StartDate).AddDate(0, 0, InsertionDay(b, s)-1)
}

// BatchStatus tells whether the batch is due today, still pending or already in.
func BatchStatus(b models.Batch, s models.IncubationSession, today time.Time) Status {
	current := CurrentSessionDay(s, today)
	insertion := InsertionDay(b, s)
	switch {
	case current == insertion:
		return StatusActionDue
	case current < insertion:
		return StatusPending
	default:
		return StatusInserted
	}
}

// IsActionDay reports whether any batch must be inserted today.
func IsActionDay(s models.IncubationSession, today time.Time) bool {
	for _, b := range s.Batches {
		if BatchStatus(b, s, today) == StatusActionDue {
			return true
		}
	}
	return false
}

// Progress is CurrentSessionDay / MaxIncubationDays clamped to [0, 1].
func Progress(s models.IncubationSession, today time.Time) float64 {
	longest := MaxIncubationDays(s)
	if longest == 0 {
		return 0
	}
	p := float64(CurrentSessionDay(s, today)) / float64(longest)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// DaysUntilHatch counts whole days from today to the final hatch date.
// It turns negative once the hatch date has passed.
func DaysUntilHatch(s models.IncubationSession, today time.Time) int {
	return daysBetween(today, FinalHatchDate(s))
}

func daysBetween(from, to time.Time) int {
	return int(models.DateOf(to).Sub(models.DateOf(from)) / day)
}
