// Package jobs runs scheduled background work such as the daily reminder
// digest.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"brokerdesk/internal/engine"
)

// Notifier delivers one digest. The default notifier only logs.
type Notifier interface {
	Notify(ctx context.Context, d engine.Digest) error
}

type logNotifier struct {
	log *slog.Logger
}

func (n logNotifier) Notify(_ context.Context, d engine.Digest) error {
	clients := make([]string, 0, len(d.Schedules))
	for _, s := range d.Schedules {
		clients = append(clients, s.ClientName)
	}
	n.log.Info("appointment reminder", "advisor_id", d.AdvisorID, "date", d.Date, "count", len(d.Schedules), "clients", clients)
	return nil
}

// Reminders sends each advisor the list of the day's appointments.
type Reminders struct {
	Engine   engine.Engine
	Log      *slog.Logger
	Notifier Notifier
	// OnSent, when set, runs after each delivered and recorded digest.
	OnSent func(engine.Digest)
}

// RunOnce builds and delivers the digests for the engine's current date.
// It returns how many digests were delivered.
func (r Reminders) RunOnce(ctx context.Context) (int, error) {
	log := r.logger()
	notifier := r.Notifier
	if notifier == nil {
		notifier = logNotifier{log: log}
	}
	today := r.Engine.Today()
	digests, err := r.Engine.Reminders(ctx, today)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, d := range digests {
		if err := notifier.Notify(ctx, d); err != nil {
			log.Error("reminder delivery failed", "advisor_id", d.AdvisorID, "err", err)
			continue
		}
		if err := r.Engine.RecordReminders(ctx, d); err != nil {
			return sent, err
		}
		sent++
		if r.OnSent != nil {
			r.OnSent(d)
		}
	}
	log.Debug("reminders run finished", "date", today.String(), "digests", len(digests), "sent", sent)
	return sent, nil
}

func (r Reminders) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Scheduler wraps a cron runner for the service's periodic jobs.
type Scheduler struct {
	cron *cron.Cron
}

// Start registers the reminder job on spec (standard 5-field cron) in loc
// and starts the runner.
func Start(spec string, loc *time.Location, r Reminders) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	log := r.logger()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			log.Error("reminders run failed", "err", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Info("reminder job scheduled", "cron", spec, "tz", loc.String())
	return &Scheduler{cron: c}, nil
}

// Stop waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Next reports the next activation time, zero when nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
