package jobs

import (
	"context"
	"log/slog"
	"time"

	"attend/internal/domain/calendar"
	"attend/internal/domain/notify"
	"attend/internal/platform/config"
)

type Reminders interface {
	RemindUnmarked(ctx context.Context, date time.Time) (notify.BroadcastResult, error)
}

// Service fires the two daily attendance reminders. Times are wall-clock IST;
// each slot fires at most once per calendar day.
type Service struct {
	cfg    config.Config
	notify Reminders
	slots  []*slot
}

type slot struct {
	name      string
	hour      int
	minute    int
	firedDate string
}

func New(cfg config.Config, reminders Reminders) (*Service, error) {
	morning, err := time.Parse("15:04", cfg.MorningReminder)
	if err != nil {
		return nil, err
	}
	afternoon, err := time.Parse("15:04", cfg.AfternoonReminder)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:    cfg,
		notify: reminders,
		slots: []*slot{
			{name: "morning", hour: morning.Hour(), minute: morning.Minute()},
			{name: "afternoon", hour: afternoon.Hour(), minute: afternoon.Minute()},
		},
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.ReminderTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.tick(ctx, now)
			}
		}
	}()
}

func (s *Service) tick(ctx context.Context, now time.Time) {
	local := now.In(calendar.IST)
	today := local.Format(calendar.DateLayout)

	for _, sl := range s.slots {
		if sl.firedDate == today {
			continue
		}
		if local.Hour() < sl.hour || (local.Hour() == sl.hour && local.Minute() < sl.minute) {
			continue
		}
		sl.firedDate = today

		result, err := s.notify.RemindUnmarked(ctx, calendar.DateOf(now))
		if err != nil {
			slog.Warn("reminder run failed", "slot", sl.name, "date", today, "err", err)
			continue
		}
		slog.Info("reminder run complete", "slot", sl.name, "date", today,
			"sent", result.Sent, "failed", result.Failed)
	}
}
