package blob

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"phonetrack/internal/sentinel"
	dErrors "phonetrack/pkg/domain-errors"
	"phonetrack/pkg/platform/httputil"
	"phonetrack/pkg/requestcontext"
)

// Handler serves stored photos for backends that implement Reader.
type Handler struct {
	objects Reader
	logger  *slog.Logger
}

func NewHandler(objects Reader, logger *slog.Logger) *Handler {
	return &Handler{objects: objects, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/photos/{name}", h.HandleGet)
}

// HandleGet implements GET /photos/{name}, returning the uploaded bytes verbatim.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	obj, err := h.objects.Get(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "photo not found"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to read photo",
			"error", err,
			"photo_name", name,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read photo"))
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data) //nolint:errcheck // client went away
}
