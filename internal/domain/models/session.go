package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar layout used for start dates everywhere.
const DateLayout = "2006-01-02"

// DefaultEggCount applies when a batch does not state how many eggs it holds.
const DefaultEggCount = 1

// Batch is one group of eggs of a single species inside a session.
type Batch struct {
	Species     Species `json:"species"`
	Description string  `json:"description"`
	EggCount    int     `json:"egg_count"`
}

// NewBatch returns the batch pre-populated in a fresh creation form.
func NewBatch() Batch {
	return Batch{Species: SpeciesChicken, EggCount: DefaultEggCount}
}

// IncubationSession is one incubator run sharing a start date and a hatch date.
type IncubationSession struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	Batches   []Batch   `json:"batches"`

	// LoadWarning is set when the stored batch list could not be decoded and
	// Batches was left empty. It is never persisted.
	LoadWarning string `json:"load_warning,omitempty"`
}

// DateOf truncates a wall-clock time to its calendar date, expressed as UTC
// midnight so that day arithmetic never crosses a DST boundary.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date.
func ParseDate(value string) (time.Time, error) {
	str := strings.TrimSpace(value)
	if len(str) > len(DateLayout) {
		str = str[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, str)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// ValidateBatches checks the batch list of a session about to be created.
func ValidateBatches(batches []Batch) error {
	if len(batches) == 0 {
		return &ValidationError{Field: "batches", Reason: "at least one batch is required"}
	}
	for i, b := range batches {
		if !b.Species.Valid() {
			return &ValidationError{Field: fmt.Sprintf("batches[%d].species", i), Reason: fmt.Sprintf("unknown species %q", b.Species)}
		}
		if b.EggCount < 1 {
			return &ValidationError{Field: fmt.Sprintf("batches[%d].egg_count", i), Reason: "must be at least 1"}
		}
	}
	return nil
}

// Validate reports whether the session may be persisted.
func (s IncubationSession) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if s.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "must be set"}
	}
	return ValidateBatches(s.Batches)
}
