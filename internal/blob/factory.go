package blob

import (
	"fmt"
	"io"
	"log/slog"

	"phonetrack/internal/platform/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewFromConfig builds the configured backend. The returned closer releases
// backend resources and is safe to call once at shutdown.
func NewFromConfig(cfg config.Blob, logger *slog.Logger) (Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BlobBackendMemory, "":
		return NewMemory(cfg.PublicBaseURL), nopCloser{}, nil
	case config.BlobBackendBadger:
		db, err := OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return NewBadger(db, cfg.PublicBaseURL), db, nil
	case config.BlobBackendSupabase:
		store := NewSupabase(SupabaseConfig{
			URL:     cfg.SupabaseURL,
			Key:     cfg.SupabaseKey,
			Bucket:  cfg.Bucket,
			Timeout: cfg.UploadTimeout,
		}, nil, logger)
		return store, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}
