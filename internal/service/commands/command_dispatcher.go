package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/service/reporting"
	"github.com/mamadbah2/incubator/internal/service/schedule"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// HelpText lists the supported commands.
const HelpText = `Incubator commands:
/status - today's incubation status
/sessions - list incubations and hatch dates
/new <name> <species>[:eggs[:description]] ... - start an incubation today
/delete <id> - remove an incubation
Species: chicken, duck, quail, goose`

// SessionService is the part of the session service the dispatcher drives.
type SessionService interface {
	Create(ctx context.Context, name string, batches []models.Batch) (models.IncubationSession, error)
	Delete(ctx context.Context, id int64) error
	Views(ctx context.Context) ([]schedule.View, error)
	Today() time.Time
}

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	DailyDigest(ctx context.Context, today time.Time) (reporting.Digest, error)
}

// Dispatcher executes parsed caretaker commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	sessions  SessionService
	reporting ReportingAdapter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(sessions SessionService, reporting ReportingAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:  sessions,
		reporting: reporting,
		logger:    logger,
	}
}

// HandleCommand runs the command and renders a reply. Validation problems are
// turned into a friendly reply rather than an error.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandStatus:
		digest, err := s.reporting.DailyDigest(ctx, s.sessions.Today())
		if err != nil {
			return "", err
		}
		return digest.Text, nil
	case models.CommandSessions:
		return s.listSessions(ctx)
	case models.CommandNew:
		name, batches, err := ParseNewSessionArgs(cmd.Args)
		if err != nil {
			return fmt.Sprintf("Could not read the incubation: %v\n\n%s", err, HelpText), nil
		}
		session, err := s.sessions.Create(ctx, name, batches)
		if errors.Is(err, models.ErrValidation) {
			return fmt.Sprintf("Incubation rejected: %v", err), nil
		}
		if err != nil {
			return "", err
		}
		view := schedule.Build(session, s.sessions.Today())
		return "Incubation started.\n" + reporting.FormatView(view), nil
	case models.CommandDelete:
		id, err := parseID(cmd.Args)
		if err != nil {
			return fmt.Sprintf("Could not read the incubation id: %v", err), nil
		}
		if err := s.sessions.Delete(ctx, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("Incubation #%d removed.", id), nil
	default:
		return HelpText, nil
	}
}

func (s *Service) listSessions(ctx context.Context) (string, error) {
	views, err := s.sessions.Views(ctx)
	if err != nil {
		return "", err
	}
	if len(views) == 0 {
		return "No active incubations.", nil
	}
	lines := make([]string, 0, len(views))
	for _, v := range views {
		line := fmt.Sprintf("#%d %s: day %d of %d, hatch %s", v.Session.ID, v.Session.Name, max(v.CurrentDay, 0), v.MaxIncubationDays, v.FinalHatchDate.Format(models.DateLayout))
		if v.ActionDay {
			line += " (eggs to insert today)"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// ParseNewSessionArgs splits "/new" arguments into a session name and its
// batches. The trailing run of tokens that start with a species are batches of
// the form species[:eggs[:description]], with underscores in the description
// read as spaces. Everything before the run is the name, so names may contain
// species words ("Goose pond chicken:6"). The first token is always part of
// the name.
func ParseNewSessionArgs(args []string) (string, []models.Batch, error) {
	first := len(args)
	for first > 1 && isBatchToken(args[first-1]) {
		first--
	}
	if first == len(args) || first == 0 {
		return "", nil, fmt.Errorf("%w: expected a name followed by at least one species", ErrInvalidArguments)
	}

	name := strings.Join(args[:first], " ")
	batches := make([]models.Batch, 0, len(args)-first)
	for _, arg := range args[first:] {
		b, err := parseBatch(arg)
		if err != nil {
			return "", nil, err
		}
		batches = append(batches, b)
	}
	return name, batches, nil
}

func isBatchToken(token string) bool {
	head, _, _ := strings.Cut(token, ":")
	_, err := models.ParseSpecies(head)
	return err == nil
}

func parseBatch(token string) (models.Batch, error) {
	parts := strings.SplitN(token, ":", 3)
	species, err := models.ParseSpecies(parts[0])
	if err != nil {
		return models.Batch{}, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	b := models.Batch{Species: species, EggCount: models.DefaultEggCount}
	if len(parts) > 1 && parts[1] != "" {
		count, err := strconv.Atoi(parts[1])
		if err != nil {
			return models.Batch{}, fmt.Errorf("%w: egg count %q is not a number", ErrInvalidArguments, parts[1])
		}
		b.EggCount = count
	}
	if len(parts) > 2 {
		b.Description = strings.ReplaceAll(parts[2], "_", " ")
	}
	return b, nil
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected exactly one id", ErrInvalidArguments)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an id", ErrInvalidArguments, args[0])
	}
	return id, nil
}
