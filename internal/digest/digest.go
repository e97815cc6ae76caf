// Package digest reports overdue bugs, once or on a cron schedule.
package digest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/zulandar/bugboard/internal/bug"
	"github.com/zulandar/bugboard/internal/models"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun returns the first fire time of expr strictly after now.
func NextRun(expr string, now time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("digest: parse schedule %q: %w", expr, err)
	}
	return sched.Next(now), nil
}

// Overdue returns the unfinished bugs whose due date has passed, most urgent
// first and, within a priority, earliest due first.
func Overdue(bugs []models.Bug, now time.Time) []models.Bug {
	out := lo.Filter(bugs, func(b models.Bug, _ int) bool {
		return b.DueDate != nil && b.DueDate.Before(now) && !b.Status.Done()
	})
	slices.SortStableFunc(out, func(a, b models.Bug) int {
		if d := b.Priority.Rank() - a.Priority.Rank(); d != 0 {
			return d
		}
		return a.DueDate.Compare(*b.DueDate)
	})
	return out
}

// Report is one digest run.
type Report struct {
	GeneratedAt time.Time
	Bugs        []models.Bug
}

// Build lists the store and computes the overdue report at now.
func Build(ctx context.Context, store bug.Store, now time.Time) (Report, error) {
	bugs, err := store.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("digest: list bugs: %w", err)
	}
	return Report{GeneratedAt: now, Bugs: Overdue(bugs, now)}, nil
}

// Format renders the report as a title line followed by one line per bug.
func Format(r Report) string {
	var sb strings.Builder
	if len(r.Bugs) == 0 {
		sb.WriteString("No overdue bugs.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d overdue bug(s) as of %s\n", len(r.Bugs), r.GeneratedAt.Format(time.DateTime))
	for _, b := range r.Bugs {
		assignee := b.Assignee
		if b.Unassigned() {
			assignee = "unassigned"
		}
		fmt.Fprintf(&sb, "  %s  [%s]  %s  due %s (%s late)  %s\n",
			b.ID, b.Priority, b.Title, b.DueDate.Format(time.DateOnly),
			lateBy(r.GeneratedAt.Sub(*b.DueDate)), assignee)
	}
	return sb.String()
}

// lateBy renders a lateness in whole days, or hours when under a day.
func lateBy(d time.Duration) string {
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// Runner logs the overdue digest on a cron schedule.
type Runner struct {
	store    bug.Store
	schedule string
	log      log.FieldLogger
	now      func() time.Time
}

// NewRunner validates expr and returns a runner for store. A nil logger uses
// the standard logrus logger.
func NewRunner(store bug.Store, expr string, logger log.FieldLogger) (*Runner, error) {
	if _, err := cronParser.Parse(expr); err != nil {
		return nil, fmt.Errorf("digest: parse schedule %q: %w", expr, err)
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Runner{store: store, schedule: expr, log: logger, now: time.Now}, nil
}

// RunOnce builds the digest and logs one entry per overdue bug.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	rep, err := Build(ctx, r.store, r.now())
	if err != nil {
		r.log.WithError(err).Error("overdue digest failed")
		return Report{}, err
	}

	r.log.WithField("overdue", len(rep.Bugs)).Info("overdue digest")
	for _, b := range rep.Bugs {
		r.log.WithFields(log.Fields{
			"bug":      b.ID,
			"priority": b.Priority,
			"status":   b.Status,
			"assignee": b.Assignee,
			"due":      b.DueDate.Format(time.DateOnly),
		}).Warn(b.Title)
	}
	return rep, nil
}

// Run fires RunOnce on the schedule until ctx is cancelled, then waits for
// any in-flight run to finish.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(r.schedule, func() {
		r.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("digest: schedule: %w", err)
	}

	next, _ := NextRun(r.schedule, r.now())
	r.log.WithFields(log.Fields{"schedule": r.schedule, "next": next.Format(time.RFC3339)}).Info("overdue digest scheduled")

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
