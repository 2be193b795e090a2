package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"attend/internal/domain/audit"
	"attend/internal/domain/calendar"
	"attend/internal/platform/cache"
	"attend/internal/platform/push"
)

const (
	StatusSent              = "SENT"
	StatusAbortedNoAudience = "ABORTED_NO_AUDIENCE"

	reminderTitle = "Attendance reminder"
	reminderBody  = "Please mark your attendance for today."

	cacheKeyManagers = "managers"
	cacheKeyEmployee = "employee:"
)

type AuditTrail interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type DispatchMetrics interface {
	RecordDispatch(success, failure int)
}

type BroadcastResult struct {
	BroadcastID string `json:"broadcastId"`
	Sent        int    `json:"sent"`
	Failed      int    `json:"failed"`
}

// Service is the single egress point for push notifications. Every dispatch
// is one batched Send, counted on the audit trail; tokens the provider marks
// dead are pruned on the way out.
type Service struct {
	store   StoreAPI
	sender  push.Sender
	audit   AuditTrail
	metrics DispatchMetrics
	tokens  *cache.TTL[[]string]
}

func NewService(store StoreAPI, sender push.Sender, auditTrail AuditTrail, dispatchMetrics DispatchMetrics, tokenTTL time.Duration) *Service {
	return &Service{
		store:   store,
		sender:  sender,
		audit:   auditTrail,
		metrics: dispatchMetrics,
		tokens:  cache.New[[]string](tokenTTL),
	}
}

func (s *Service) NotifyManagers(ctx context.Context, title, body string, data map[string]string) error {
	tokens, err := s.cachedTokens(ctx, cacheKeyManagers, s.store.ManagerTokens)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	_, err = s.dispatch(ctx, tokens, title, body, data, "system", "notification.managers", "")
	return err
}

func (s *Service) NotifyEmployee(ctx context.Context, employeeID, title, body string, data map[string]string) error {
	tokens, err := s.cachedTokens(ctx, cacheKeyEmployee+employeeID, func(ctx context.Context) ([]string, error) {
		return s.store.EmployeeTokens(ctx, employeeID)
	})
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	_, err = s.dispatch(ctx, tokens, title, body, data, "system", "notification.employee", employeeID)
	return err
}

// Broadcast sends the fixed reminder to every eligible device. A broadcast
// with no audience still leaves an audit record so the attempt is visible.
func (s *Service) Broadcast(ctx context.Context, requesterID string) (BroadcastResult, error) {
	broadcastID := uuid.NewString()

	tokens, err := s.store.BroadcastTokens(ctx)
	if err != nil {
		return BroadcastResult{}, err
	}
	if len(tokens) == 0 {
		s.record(ctx, audit.Entry{
			Actor:  requesterID,
			Action: "notification.broadcast",
			Target: broadcastID,
			Status: StatusAbortedNoAudience,
		})
		return BroadcastResult{BroadcastID: broadcastID}, nil
	}

	data := map[string]string{"type": "broadcast", "broadcastId": broadcastID}
	res, err := s.dispatch(ctx, tokens, reminderTitle, reminderBody, data, requesterID, "notification.broadcast", broadcastID)
	if err != nil {
		slog.Warn("broadcast dispatch failed", "broadcastId", broadcastID, "err", err)
	}
	return BroadcastResult{BroadcastID: broadcastID, Sent: res.SuccessCount, Failed: res.FailureCount}, nil
}

// RemindUnmarked nudges every active employee without an attendance record
// on the given date. Used by the scheduled reminder job.
func (s *Service) RemindUnmarked(ctx context.Context, date time.Time) (BroadcastResult, error) {
	target := date.Format(calendar.DateLayout)

	tokens, err := s.store.UnmarkedTokens(ctx, date)
	if err != nil {
		return BroadcastResult{}, err
	}
	if len(tokens) == 0 {
		s.record(ctx, audit.Entry{
			Actor:  "system",
			Action: "notification.reminder",
			Target: target,
			Status: StatusAbortedNoAudience,
		})
		return BroadcastResult{}, nil
	}

	data := map[string]string{"type": "reminder", "date": target}
	res, err := s.dispatch(ctx, tokens, reminderTitle, reminderBody, data, "system", "notification.reminder", target)
	if err != nil {
		slog.Warn("reminder dispatch failed", "date", target, "err", err)
	}
	return BroadcastResult{Sent: res.SuccessCount, Failed: res.FailureCount}, nil
}

func (s *Service) RegisterToken(ctx context.Context, employeeID, token string, granted bool) error {
	if err := s.store.UpsertToken(ctx, employeeID, token, granted); err != nil {
		return err
	}
	s.tokens.Flush()
	return nil
}

func (s *Service) UnregisterToken(ctx context.Context, employeeID, token string) error {
	if err := s.store.DeleteToken(ctx, employeeID, token); err != nil {
		return err
	}
	s.tokens.Flush()
	return nil
}

func (s *Service) cachedTokens(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if tokens, ok := s.tokens.Get(key); ok {
		return tokens, nil
	}
	tokens, err := load(ctx)
	if err != nil {
		return nil, err
	}
	s.tokens.Set(key, tokens)
	return tokens, nil
}

// dispatch performs one batched send and the bookkeeping around it. The
// returned error reflects the provider call only; counting, pruning and the
// audit record happen regardless.
func (s *Service) dispatch(ctx context.Context, tokens []string, title, body string, data map[string]string, actor, action, target string) (push.Result, error) {
	res, err := s.sender.Send(ctx, dedupe(tokens), title, body, data)

	s.metrics.RecordDispatch(res.SuccessCount, res.FailureCount)

	if len(res.InvalidTokens) > 0 {
		if pruned, pruneErr := s.store.PruneTokens(ctx, res.InvalidTokens); pruneErr != nil {
			slog.Warn("pruning dead tokens failed", "err", pruneErr)
		} else if pruned > 0 {
			s.tokens.Flush()
		}
	}

	s.record(ctx, audit.Entry{
		Actor:  actor,
		Action: action,
		Target: target,
		Status: StatusSent,
		Details: map[string]int{
			"success": res.SuccessCount,
			"failure": res.FailureCount,
		},
	})
	return res, err
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		slog.Warn("audit record failed", "action", entry.Action, "err", err)
	}
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
