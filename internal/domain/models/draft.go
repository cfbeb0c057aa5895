package models

import (
	"fmt"
	"strings"
	"time"
)

// Draft is the mutable buffer a caretaker fills in before committing a new
// session. It starts with one editable batch.
type Draft struct {
	Name    string
	Batches []Batch
}

// NewDraft returns a draft holding a single default batch.
func NewDraft() *Draft {
	return &Draft{Batches: []Batch{NewBatch()}}
}

// SetName replaces the draft name.
func (d *Draft) SetName(name string) {
	d.Name = name
}

// AddBatch appends a batch and returns its index.
func (d *Draft) AddBatch(b Batch) int {
	d.Batches = append(d.Batches, b)
	return len(d.Batches) - 1
}

// UpdateBatch overwrites the batch at index i.
func (d *Draft) UpdateBatch(i int, b Batch) error {
	if i < 0 || i >= len(d.Batches) {
		return fmt.Errorf("batch index %d out of range", i)
	}
	d.Batches[i] = b
	return nil
}

// RemoveBatch deletes the batch at index i, keeping the order of the rest.
func (d *Draft) RemoveBatch(i int) error {
	if i < 0 || i >= len(d.Batches) {
		return fmt.Errorf("batch index %d out of range", i)
	}
	d.Batches = append(d.Batches[:i], d.Batches[i+1:]...)
	return nil
}

// Validate applies the creation rules without touching the draft.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return ValidateBatches(d.Batches)
}

// Build produces the session to persist. The batch slice is copied so later
// edits to the draft do not leak into it.
func (d *Draft) Build(startDate time.Time) (IncubationSession, error) {
	if err := d.Validate(); err != nil {
		return IncubationSession{}, err
	}
	batches := make([]Batch, len(d.Batches))
	copy(batches, d.Batches)
	return IncubationSession{
		Name:      strings.TrimSpace(d.Name),
		StartDate: DateOf(startDate),
		Batches:   batches,
	}, nil
}

// Reset clears the draft after a successful commit.
func (d *Draft) Reset() {
	d.Name = ""
	d.Batches = nil
}
