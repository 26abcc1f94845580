package service

import (
	"context"

	"phonetrack/internal/platform/tracer"
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

// orphanedPhoto records a photo that was uploaded for a record that never
// got inserted. The blob is not deleted.
func (s *Service) orphanedPhoto(ctx context.Context, span tracer.Span, photoName string, cause error) {
	s.logger.WarnContext(ctx, "orphaned photo after failed insert",
		"photo_name", photoName,
		"error", cause,
		"request_id", requestID(ctx),
		"log_type", "audit",
	)
	span.AddEvent(tracer.EventOrphanedPhoto, tracer.String(tracer.AttrPhotoName, photoName))
	if s.metrics != nil {
		s.metrics.IncrementOrphanedPhotos()
	}
}
