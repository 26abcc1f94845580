package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"phonetrack/internal/sentinel"
)

// SupabaseConfig configures the Supabase Storage backend.
type SupabaseConfig struct {
	URL     string
	Key     string
	Bucket  string
	Timeout time.Duration
}

// SupabaseStore uploads to a public Supabase Storage bucket. Calls go through
// a circuit breaker so a dead storage API fails fast instead of tying up
// request goroutines until the client timeout.
type SupabaseStore struct {
	client  *http.Client
	baseURL string
	key     string
	bucket  string
	cb      *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// errorBodyLimit bounds how much of an error response is kept for logs.
const errorBodyLimit = 512

func NewSupabase(cfg SupabaseConfig, client *http.Client, logger *slog.Logger) *SupabaseStore {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &SupabaseStore{
		client:  client,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.Key,
		bucket:  cfg.Bucket,
		logger:  logger,
	}
	s.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "supabase-storage",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client mistakes (a duplicate name) must not open the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, sentinel.ErrAlreadyUsed)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return s
}

// Upload posts the object to /storage/v1/object/{bucket}/{name} and returns
// its public URL. Existing objects are never overwritten.
func (s *SupabaseStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	url, err := s.cb.Execute(func() (string, error) {
		return s.upload(ctx, name, contentType, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("supabase storage: %w: %w", sentinel.ErrUnavailable, err)
		}
		return "", err
	}
	return url, nil
}

func (s *SupabaseStore) upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	endpoint := publicURL(s.baseURL, "storage", "v1", "object", s.bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", contentTypeOrDefault(contentType))
	req.Header.Set("x-upsert", "false")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // body fully consumed or discarded

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit)) //nolint:errcheck // best effort
		if resp.StatusCode == http.StatusConflict || strings.Contains(string(detail), "Duplicate") {
			return "", fmt.Errorf("upload %s: %w", name, sentinel.ErrAlreadyUsed)
		}
		return "", fmt.Errorf("upload %s: storage responded %d: %s", name, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	return publicURL(s.baseURL, "storage", "v1", "object", "public", s.bucket, name), nil
}

// Ping checks that the bucket is reachable with the configured key.
func (s *SupabaseStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		publicURL(s.baseURL, "storage", "v1", "bucket", s.bucket), nil)
	if err != nil {
		return err
	}
	s.authorize(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase storage: %w", err)
	}
	_ = resp.Body.Close() //nolint:errcheck // nothing to read
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("supabase storage: bucket check responded %d", resp.StatusCode)
	}
	return nil
}

func (s *SupabaseStore) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("apikey", s.key)
}
