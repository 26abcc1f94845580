package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"phonetrack/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanTrackingCreate,
		tracer.String(tracer.AttrUserID, "u-1"),
		tracer.Bool(tracer.AttrHasPhoto, true),
	)

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Int64(tracer.AttrPhotoBytes, 42))
	span.AddEvent(tracer.EventOrphanedPhoto)
	span.End(errors.New("boom"))
}

func TestOTelTracerWithInjectedProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanTrackingSearch,
		tracer.String(tracer.AttrPhoneHash, tracer.HashPhone("555")),
		tracer.Int(tracer.AttrResultSize, 3),
		tracer.Duration("elapsed", 1500*time.Millisecond),
		tracer.Attribute{Key: "other", Value: struct{ N int }{1}},
	)
	require.NotNil(t, ctx)
	span.AddEvent("event", tracer.String("k", "v"))
	span.End(nil)
}

func TestOTelTracerDefaultsToGlobalProvider(t *testing.T) {
	tr := tracer.NewOTel()
	_, span := tr.Start(context.Background(), tracer.SpanTrackingList)
	span.End(errors.New("failed"))
}

func TestHashPhone(t *testing.T) {
	assert.Empty(t, tracer.HashPhone(""))

	h := tracer.HashPhone("555-0100")
	assert.Len(t, h, 16)
	assert.Equal(t, h, tracer.HashPhone("555-0100"))
	assert.NotEqual(t, h, tracer.HashPhone("555-0101"))
	assert.NotContains(t, h, "555")
}
