package reporting

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/metrics"
	repo "github.com/mamadbah2/incubator/internal/repository/sheets"
	"github.com/mamadbah2/incubator/internal/service/schedule"
)

const displayDateLayout = "02/01/2006"

// SessionLister is the read side of the session service.
type SessionLister interface {
	List(ctx context.Context) ([]models.IncubationSession, error)
}

// Digest is the daily caretaker summary.
type Digest struct {
	Date       time.Time
	Sessions   int
	DueBatches int
	Text       string
}

// Service builds caretaker summaries and mirrors sessions to a spreadsheet.
type Service struct {
	sessions    SessionLister
	sheet       repo.Repository
	exportRange string
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewService wires a new reporting service instance. sheet may be nil when
// the spreadsheet export is disabled.
func NewService(sessions SessionLister, sheet repo.Repository, exportRange string, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:    sessions,
		sheet:       sheet,
		exportRange: exportRange,
		metrics:     m,
		logger:      logger,
	}
}

// DailyDigest summarises every session for today and lists the batches whose
// eggs go in today.
func (s *Service) DailyDigest(ctx context.Context, today time.Time) (Digest, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return Digest{}, fmt.Errorf("load sessions: %w", err)
	}

	today = models.DateOf(today)
	digest := Digest{Date: today, Sessions: len(sessions)}

	var b strings.Builder
	fmt.Fprintf(&b, "Incubator status %s", today.Format(displayDateLayout))
	if len(sessions) == 0 {
		b.WriteString("\nNo active incubations.")
		digest.Text = b.String()
		s.metrics.SetActionDue(0)
		return digest, nil
	}

	for _, view := range schedule.BuildAll(sessions, today) {
		b.WriteString("\n\n")
		b.WriteString(FormatView(view))
		digest.DueBatches += len(view.DueToday())
	}
	digest.Text = b.String()
	s.metrics.SetActionDue(digest.DueBatches)

	s.logger.Debug("digest built", zap.Int("sessions", digest.Sessions), zap.Int("due_batches", digest.DueBatches))
	return digest, nil
}

// FormatView renders one session the way the caretaker reads it on a phone.
func FormatView(v schedule.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", v.Session.ID, v.Session.Name)
	fmt.Fprintf(&b, "Started %s, hatch expected %s\n",
		v.Session.StartDate.Format(displayDateLayout),
		v.FinalHatchDate.Format(displayDateLayout))
	fmt.Fprintf(&b, "Day %d of %d (%d%%)", max(v.CurrentDay, 0), v.MaxIncubationDays, int(v.Progress*100))
	if v.Session.LoadWarning != "" {
		b.WriteString("\n! batch list could not be read")
	}
	for _, bv := range v.Batches {
		b.WriteString("\n")
		b.WriteString(formatBatch(bv))
	}
	return b.String()
}

func formatBatch(bv schedule.BatchView) string {
	label := fmt.Sprintf("%d %s eggs", bv.Batch.EggCount, bv.Batch.Species.Label())
	if bv.Batch.Description != "" {
		label += fmt.Sprintf(" (%s)", bv.Batch.Description)
	}
	switch bv.Status {
	case schedule.StatusActionDue:
		return "-> TODAY: insert " + label
	case schedule.StatusPending:
		return fmt.Sprintf("   insert %s on day %d (%s)", label, bv.InsertionDay, bv.InsertionDate.Format(displayDateLayout))
	default:
		return "   " + label + " inserted"
	}
}

// SyncSheet appends every session not yet present in the export range.
// Column A of the range holds session ids.
func (s *Service) SyncSheet(ctx context.Context) (int, error) {
	if s.sheet == nil {
		return 0, nil
	}

	existing, err := s.sheet.ReadRange(ctx, s.exportRange)
	if err != nil {
		return 0, fmt.Errorf("load exported sessions: %w", err)
	}
	exported := make(map[int64]struct{}, len(existing))
	for _, row := range existing {
		if len(row) == 0 {
			continue
		}
		id, err := parseInt(row[0])
		if err != nil {
			s.logger.Debug("skip export row with invalid id", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		exported[id] = struct{}{}
	}

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load sessions: %w", err)
	}

	// Oldest first so the sheet reads chronologically.
	var rows [][]interface{}
	for i := len(sessions) - 1; i >= 0; i-- {
		if _, ok := exported[sessions[i].ID]; ok {
			continue
		}
		rows = append(rows, SheetRow(sessions[i]))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.sheet.AppendRows(ctx, s.exportRange, rows); err != nil {
		return 0, fmt.Errorf("export %d sessions: %w", len(rows), err)
	}
	s.logger.Info("sessions exported to sheet", zap.Int("count", len(rows)))
	return len(rows), nil
}

// SheetRow is the spreadsheet representation of a session.
func SheetRow(session models.IncubationSession) []interface{} {
	plan := make([]string, 0, len(session.Batches))
	for _, b := range session.Batches {
		entry := fmt.Sprintf("%s x%d @ day %d", b.Species.Label(), b.EggCount, schedule.InsertionDay(b, session))
		if b.Description != "" {
			entry += " (" + b.Description + ")"
		}
		plan = append(plan, entry)
	}
	return []interface{}{
		session.ID,
		session.Name,
		session.StartDate.Format(models.DateLayout),
		schedule.FinalHatchDate(session).Format(models.DateLayout),
		schedule.MaxIncubationDays(session),
		strings.Join(plan, "; "),
	}
}

func parseInt(value interface{}) (int64, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseInt(str, 10, 64)
}
