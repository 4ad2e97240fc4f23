package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nimburion/querykit/pkg/observability/logger"
)

// Directions accepted by ParseCommand.
const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStatus = "status"
)

const defaultTimeout = 60 * time.Second

// ErrUsage is returned for migrate arguments that do not form a command.
var ErrUsage = errors.New("usage: migrate [up|down [steps]|status]")

// PendingMigration contains an unapplied migration entry for status output.
type PendingMigration struct {
	Version int64
	Name    string
}

// Status lists the applied versions and the migrations still to run, oldest first.
type Status struct {
	AppliedVersions []int64
	Pending         []PendingMigration
}

// Operations are the hooks a migrate run drives. NewOperations binds them to a SQLManager.
type Operations struct {
	Up     func(ctx context.Context) (int, error)
	Down   func(ctx context.Context, steps int) (int, error)
	Status func(ctx context.Context) (*Status, error)
}

// Options configures a migrate run.
type Options struct {
	// Path is the migrations directory inside the migration files.
	Path string
	// Timeout bounds the whole run; 60s when zero.
	Timeout time.Duration
	Logger  logger.Logger
}

// Command is one parsed migrate invocation.
type Command struct {
	Direction string
	Steps     int
}

// ParseCommand parses "up", "down [steps]" or "status". Steps default to 1.
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrUsage
	}
	cmd := Command{Direction: args[0], Steps: 1}
	switch cmd.Direction {
	case DirectionUp, DirectionStatus:
		if len(args) > 1 {
			return Command{}, fmt.Errorf("%w: %s takes no steps", ErrUsage, cmd.Direction)
		}
	case DirectionDown:
		if len(args) > 2 {
			return Command{}, fmt.Errorf("%w: too many arguments", ErrUsage)
		}
		if len(args) == 2 {
			steps, err := strconv.Atoi(args[1])
			if err != nil || steps <= 0 {
				return Command{}, fmt.Errorf("invalid down steps %q", args[1])
			}
			cmd.Steps = steps
		}
	default:
		return Command{}, fmt.Errorf("%w: unknown direction %q", ErrUsage, cmd.Direction)
	}
	return cmd, nil
}

// Report is the outcome of a migrate run. Count is the number of migrations
// applied or reverted; Status is set for status runs only.
type Report struct {
	Direction string
	Count     int
	Status    *Status
}

// Write prints the report for a terminal.
func (r *Report) Write(w io.Writer) error {
	switch r.Direction {
	case DirectionUp:
		_, err := fmt.Fprintf(w, "applied %d migration(s)\n", r.Count)
		return err
	case DirectionDown:
		_, err := fmt.Fprintf(w, "reverted %d migration(s)\n", r.Count)
		return err
	}
	if r.Status == nil {
		return nil
	}
	applied := make([]string, len(r.Status.AppliedVersions))
	for i, v := range r.Status.AppliedVersions {
		applied[i] = strconv.FormatInt(v, 10)
	}
	pending := make([]string, len(r.Status.Pending))
	for i, p := range r.Status.Pending {
		pending[i] = fmt.Sprintf("%d_%s", p.Version, p.Name)
	}
	_, err := fmt.Fprintf(w, "applied: %s\npending: %s\n", orNone(applied), orNone(pending))
	return err
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// Run executes cmd against ops. The run is bounded by opts.Timeout on top of ctx.
func Run(ctx context.Context, cmd Command, opts Options, ops Operations) (*Report, error) {
	if opts.Logger == nil {
		return nil, errors.New("migration logger is required")
	}
	if ops.Up == nil || ops.Down == nil || ops.Status == nil {
		return nil, errors.New("migration operations are incomplete")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report := &Report{Direction: cmd.Direction}
	switch cmd.Direction {
	case DirectionUp:
		applied, err := ops.Up(ctx)
		if err != nil {
			return nil, err
		}
		report.Count = applied
		opts.Logger.Info("migrations applied", "count", applied, "path", opts.Path)
	case DirectionDown:
		if cmd.Steps <= 0 {
			return nil, errors.New("steps must be greater than zero")
		}
		reverted, err := ops.Down(ctx, cmd.Steps)
		if err != nil {
			return nil, err
		}
		report.Count = reverted
		opts.Logger.Info("migrations reverted", "count", reverted, "steps", cmd.Steps, "path", opts.Path)
	case DirectionStatus:
		status, err := ops.Status(ctx)
		if err != nil {
			return nil, err
		}
		report.Status = status
		opts.Logger.Debug("migration status", "applied", len(status.AppliedVersions), "pending", len(status.Pending), "path", opts.Path)
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrUsage, cmd.Direction)
	}
	return report, nil
}
