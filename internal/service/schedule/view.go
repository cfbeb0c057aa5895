package schedule

import (
	"time"

	"github.com/mamadbah2/incubator/internal/domain/models"
)

// BatchView is the derived plan for one batch.
type BatchView struct {
	Batch         models.Batch
	InsertionDay  int
	InsertionDate time.Time
	Status        Status
}

// View bundles everything a presentation layer shows for a session on a given day.
type View struct {
	Session           models.IncubationSession
	Today             time.Time
	MaxIncubationDays int
	FinalHatchDate    time.Time
	CurrentDay        int
	DaysUntilHatch    int
	Progress          float64
	ActionDay         bool
	Batches           []BatchView
}

// Build derives the full view of s for today.
func Build(s models.IncubationSession, today time.Time) View {
	today = models.DateOf(today)
	v := View{
		Session:           s,
		Today:             today,
		MaxIncubationDays: MaxIncubationDays(s),
		FinalHatchDate:    FinalHatchDate(s),
		CurrentDay:        CurrentSessionDay(s, today),
		DaysUntilHatch:    DaysUntilHatch(s, today),
		Progress:          Progress(s, today),
		Batches:           make([]BatchView, 0, len(s.Batches)),
	}
	for _, b := range s.Batches {
		bv := BatchView{
			Batch:         b,
			InsertionDay:  InsertionDay(b, s),
			InsertionDate: InsertionDate(b, s),
			Status:        BatchStatus(b, s, today),
		}
		if bv.Status == StatusActionDue {
			v.ActionDay = true
		}
		v.Batches = append(v.Batches, bv)
	}
	return v
}

// DueToday returns the batches whose eggs must be inserted today, in session order.
func (v View) DueToday() []BatchView {
	var due []BatchView
	for _, b := range v.Batches {
		if b.Status == StatusActionDue {
			due = append(due, b)
		}
	}
	return due
}

// BuildAll derives views for every session, preserving order.
func BuildAll(sessions []models.IncubationSession, today time.Time) []View {
	views := make([]View, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, Build(s, today))
	}
	return views
}
