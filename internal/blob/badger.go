package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"phonetrack/internal/sentinel"
)

// Key prefixes for BadgerDB storage
const (
	photoKeyPrefix = "photo:"
	metaKeyPrefix  = "photo_meta:"
)

type objectMeta struct {
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// BadgerStore persists photos in a local BadgerDB. Bytes and metadata are
// written in one transaction.
type BadgerStore struct {
	db      *badger.DB
	baseURL string
	now     func() time.Time
}

// OpenBadger opens (or creates) a database directory at dir.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return db, nil
}

func NewBadger(db *badger.DB, baseURL string) *BadgerStore {
	return &BadgerStore{db: db, baseURL: baseURL, now: time.Now}
}

func (s *BadgerStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read photo %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	meta, err := json.Marshal(objectMeta{
		ContentType: contentTypeOrDefault(contentType),
		Size:        len(data),
		UploadedAt:  s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal photo metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(metaKeyPrefix + name))
		if err == nil {
			return sentinel.ErrAlreadyUsed
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set([]byte(photoKeyPrefix+name), data); err != nil {
			return fmt.Errorf("set photo: %w", err)
		}
		if err := txn.Set([]byte(metaKeyPrefix+name), meta); err != nil {
			return fmt.Errorf("set photo metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store photo %s: %w", name, err)
	}
	return publicURL(s.baseURL, "photos", name), nil
}

func (s *BadgerStore) Get(_ context.Context, name string) (*Object, error) {
	obj := &Object{Name: name}
	err := s.db.View(func(txn *badger.Txn) error {
		metaItem, err := txn.Get([]byte(metaKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		var meta objectMeta
		if err := metaItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("decode photo metadata: %w", err)
		}
		obj.ContentType = meta.ContentType
		obj.UploadedAt = meta.UploadedAt

		item, err := txn.Get([]byte(photoKeyPrefix + name))
		if err != nil {
			return fmt.Errorf("get photo bytes: %w", err)
		}
		obj.Data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("photo %s: %w", name, err)
	}
	return obj, nil
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("badger: %w", sentinel.ErrUnavailable)
	}
	return nil
}
