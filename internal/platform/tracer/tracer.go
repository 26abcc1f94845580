// Package tracer is a small tracing abstraction so services can emit spans
// without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter, global provider by default
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashPhone returns a short SHA-256 prefix of a phone number so traces can be
// correlated without carrying the number itself.
func HashPhone(phone string) string {
	if phone == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanTrackingCreate = "tracking.create"
	SpanTrackingList   = "tracking.list"
	SpanTrackingSearch = "tracking.search"
	SpanTrackingUpdate = "tracking.update"
	SpanPhotoUpload    = "tracking.photo.upload"
	SpanRecordInsert   = "tracking.record.insert"
)

// Attribute keys.
const (
	AttrUserID     = "user.id"
	AttrRecordID   = "record.id"
	AttrPhoneHash  = "phone.hash"
	AttrHasPhoto   = "photo.present"
	AttrPhotoBytes = "photo.bytes"
	AttrPhotoName  = "photo.name"
	AttrResultSize = "result.count"
)

// Event names.
const (
	EventOrphanedPhoto = "photo.orphaned"
)
