package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"phonetrack/internal/tracking/models"
	id "phonetrack/pkg/domain"
	dErrors "phonetrack/pkg/domain-errors"
	"phonetrack/pkg/platform/httputil"
	"phonetrack/pkg/requestcontext"
	"phonetrack/pkg/validation"
)

// Service defines the tracking operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, cmd *models.CreateCommand) (*models.Record, error)
	ListOwn(ctx context.Context, ownerID id.UserID) ([]*models.Record, error)
	SearchByPhone(ctx context.Context, phone string) ([]*models.Record, error)
	Update(ctx context.Context, ownerID id.UserID, recordID id.RecordID, fields models.UpdateFields) (*models.Record, error)
}

// Handler serves the tracking routes. All of them must sit behind the auth
// middleware; a missing identity is treated as a wiring bug.
type Handler struct {
	tracking Service
	logger   *slog.Logger
}

func New(tracking Service, logger *slog.Logger) *Handler {
	return &Handler{
		tracking: tracking,
		logger:   logger,
	}
}

// Register mounts the tracking routes. The create route accepts photo uploads
// and so carries its own body limit; bodyLimit wraps the JSON-only routes.
func (h *Handler) Register(r chi.Router, bodyLimit func(http.Handler) http.Handler) {
	r.Post("/tracking/create", h.HandleCreate)
	r.Group(func(r chi.Router) {
		if bodyLimit != nil {
			r.Use(bodyLimit)
		}
		r.Get("/tracking/records", h.HandleList)
		r.Get("/tracking/search/{phone}", h.HandleSearch)
		r.Put("/tracking/update/{id}", h.HandleUpdate)
	})
}

// HandleCreate implements POST /tracking/create.
//
// Input: multipart/form-data with phone_number, description, location and an
// optional file field "photo". A JSON body without a photo is also accepted.
// Output: 201 { "success": true, "data": record }
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxMultipartBody)

	req, photo, err := h.parseCreate(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid create request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	if photo != nil {
		defer func() { _ = photo.close() }() //nolint:errcheck // temp file cleanup
	}

	cmd := &models.CreateCommand{
		OwnerID:     userID,
		PhoneNumber: req.PhoneNumber,
		Description: req.Description,
		Location:    req.Location,
	}
	if photo != nil {
		cmd.Photo = photo.Photo
	}

	record, err := h.tracking.Create(ctx, cmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "create tracking record failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteData(w, http.StatusCreated, models.ToView(record))
}

type uploadedPhoto struct {
	*models.Photo
	close func() error
}

func (h *Handler) parseCreate(r *http.Request) (*models.CreateRequest, *uploadedPhoto, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty type handled below

	req := &models.CreateRequest{}
	var photo *uploadedPhoto

	switch mediaType {
	case "application/json":
		decoded, err := decodeJSON[models.CreateRequest](r)
		if err != nil {
			return nil, nil, err
		}
		req = decoded
	case "multipart/form-data", "application/x-www-form-urlencoded":
		if err := r.ParseMultipartForm(validation.MaxPhotoSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, formError(err)
		}
		req.PhoneNumber = r.FormValue("phone_number")
		req.Description = r.FormValue("description")
		req.Location = r.FormValue("location")

		p, err := formPhoto(r)
		if err != nil {
			return nil, nil, err
		}
		photo = p
	default:
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "expected multipart/form-data or application/json body")
	}

	if err := httputil.PrepareRequest(req); err != nil {
		if photo != nil {
			_ = photo.close() //nolint:errcheck // request rejected
		}
		return nil, nil, err
	}
	return req, photo, nil
}

func formPhoto(r *http.Request) (*uploadedPhoto, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, formError(err)
	}
	if header.Size > validation.MaxPhotoSize {
		_ = file.Close() //nolint:errcheck // rejecting
		return nil, dErrors.New(dErrors.CodeTooLarge, "photo too large")
	}
	return &uploadedPhoto{
		Photo: &models.Photo{
			FileName:    header.Filename,
			ContentType: photoContentType(header),
			Size:        header.Size,
			Content:     file,
		},
		close: file.Close,
	}, nil
}

func photoContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return mime.TypeByExtension(path.Ext(header.Filename))
}

func decodeJSON[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return &req, nil
}

func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return dErrors.New(dErrors.CodeTooLarge, "request body too large")
	}
	return dErrors.New(dErrors.CodeBadRequest, "invalid form body")
}

// HandleList implements GET /tracking/records.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.tracking.ListOwn(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tracking records failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, models.ToViews(records))
}

// HandleSearch implements GET /tracking/search/{phone}. Results are not
// limited to the caller's own records.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, err := httputil.RequireUserID(ctx, h.logger, requestID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	phone, err := pathParam(r, "phone")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid phone number"))
		return
	}

	records, err := h.tracking.SearchByPhone(ctx, phone)
	if err != nil {
		h.logger.ErrorContext(ctx, "search tracking records failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, models.ToViews(records))
}

// HandleUpdate implements PUT /tracking/update/{id}.
//
// Input: { "status": "found", "description": "..." } (either field optional, not both)
// Output: 200 { "success": true, "data": record }
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := httputil.RequireUserID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.tracking.Update(ctx, userID, recordID, req.Fields())
	if err != nil {
		h.logger.WarnContext(ctx, "update tracking record failed",
			"error", err,
			"request_id", requestID,
			"record_id", recordID.String(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, models.ToView(record))
}

// pathParam returns a decoded URL parameter. chi matches against RawPath when
// the request has one and against the already decoded Path otherwise, so only
// the former still needs unescaping.
func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}
