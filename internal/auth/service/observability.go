package service

import (
	"context"

	"phonetrack/pkg/requestcontext"
)

func requestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if rid := requestID(ctx); rid != "" {
		attributes = append(attributes, "request_id", rid)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

// authFailure logs and counts a rejected credential check. The email is not
// logged so failed attempts do not leak which accounts exist.
func (s *Service) authFailure(ctx context.Context, reason string, attributes ...any) {
	args := append(attributes,
		"event", "auth_failed",
		"reason", reason,
		"log_type", "audit",
		"request_id", requestID(ctx),
	)
	s.logger.WarnContext(ctx, "auth_failed", args...)
	if s.metrics != nil {
		s.metrics.IncrementAuthFailures()
	}
	s.observeLogin("invalid_credentials")
}

func (s *Service) observeLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveLogin(outcome)
	}
}
