// Package blob stores uploaded photos and hands back URLs they can be
// fetched from. Three backends exist: in-process memory, a local badger
// database, and Supabase Storage over REST.
package blob

import (
	"context"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"phonetrack/pkg/validation"
)

// Store uploads an object under a caller-chosen name and returns the URL it
// is retrievable from. Upload either stores the whole object or nothing.
type Store interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	Ping(ctx context.Context) error
}

// Reader is implemented by backends that serve their own objects.
// Get returns sentinel.ErrNotFound for unknown names.
type Reader interface {
	Get(ctx context.Context, name string) (*Object, error)
}

// Object is a stored photo.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
	UploadedAt  time.Time
}

const defaultContentType = "application/octet-stream"

// ObjectName builds the storage name for an upload: the upload instant in
// unix milliseconds, a dash, then the client file name reduced to a safe
// base name.
func ObjectName(uploadedAt time.Time, originalName string) string {
	return strconv.FormatInt(uploadedAt.UnixMilli(), 10) + "-" + SafeFileName(originalName)
}

// SafeFileName strips directories and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func SafeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "photo"
	}
	if len(out) > validation.MaxFileNameLength {
		out = out[len(out)-validation.MaxFileNameLength:]
	}
	return out
}

// publicURL joins a base URL and an object path, escaping the name.
func publicURL(base string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(escaped, "/")
}

func contentTypeOrDefault(ct string) string {
	if strings.TrimSpace(ct) == "" {
		return defaultContentType
	}
	return ct
}
