package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RecordStore,PhotoUploader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"phonetrack/internal/blob"
	"phonetrack/internal/platform/tracer"
	"phonetrack/internal/sentinel"
	"phonetrack/internal/tracking/metrics"
	"phonetrack/internal/tracking/models"
	id "phonetrack/pkg/domain"
	dErrors "phonetrack/pkg/domain-errors"
	"phonetrack/pkg/platform/middleware/requesttime"
)

// RecordStore persists tracking records.
// Error Contract: UpdateOwned returns sentinel.ErrNotFound when no record
// matches both the id and the owner.
type RecordStore interface {
	Insert(ctx context.Context, r *models.Record) error
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Record, error)
	ListByPhone(ctx context.Context, phone string) ([]*models.Record, error)
	UpdateOwned(ctx context.Context, recordID id.RecordID, ownerID id.UserID, fields models.UpdateFields) (*models.Record, error)
}

// PhotoUploader stores photo bytes and returns a fetchable URL.
type PhotoUploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// Service implements ownership-scoped tracking operations. Every method
// expects an owner already authenticated by the access guard.
type Service struct {
	records RecordStore
	photos  PhotoUploader
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	now     func(ctx context.Context) time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock fixes the time source. By default the request-scoped time is used.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = func(context.Context) time.Time { return now() }
	}
}

func New(records RecordStore, photos PhotoUploader, opts ...Option) *Service {
	svc := &Service{
		records: records,
		photos:  photos,
		now:     requesttime.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc
}

// Create uploads the optional photo, then inserts the record. An upload
// failure aborts before anything is written. An insert failure after a
// successful upload leaves the photo behind; it is logged and counted.
func (s *Service) Create(ctx context.Context, cmd *models.CreateCommand) (rec *models.Record, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanTrackingCreate,
		tracer.String(tracer.AttrUserID, cmd.OwnerID.String()),
		tracer.String(tracer.AttrPhoneHash, tracer.HashPhone(cmd.PhoneNumber)),
		tracer.Bool(tracer.AttrHasPhoto, cmd.Photo != nil),
	)
	defer func() { span.End(err) }()

	now := s.now(ctx).UTC().Truncate(time.Microsecond)

	var photoURL *string
	var photoName string
	if cmd.Photo != nil {
		photoName = blob.ObjectName(now, cmd.Photo.FileName)
		url, err := s.uploadPhoto(ctx, photoName, cmd.Photo)
		if err != nil {
			s.logger.ErrorContext(ctx, "photo upload failed",
				"error", err,
				"photo_name", photoName,
				"request_id", requestID(ctx),
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to upload photo")
		}
		photoURL = &url
	}

	record := &models.Record{
		ID:          id.NewRecordID(),
		OwnerID:     cmd.OwnerID,
		PhoneNumber: cmd.PhoneNumber,
		PhotoURL:    photoURL,
		Description: cmd.Description,
		Location:    cmd.Location,
		Status:      models.DefaultStatus,
		CreatedAt:   now,
	}

	if err := s.insert(ctx, record); err != nil {
		if photoURL != nil {
			s.orphanedPhoto(ctx, span, photoName, err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tracking record")
	}

	s.logAudit(ctx, "record_created",
		"user_id", cmd.OwnerID.String(),
		"record_id", record.ID.String(),
		"has_photo", photoURL != nil,
	)
	if s.metrics != nil {
		s.metrics.IncrementRecordsCreated()
	}
	return record, nil
}

func (s *Service) uploadPhoto(ctx context.Context, name string, photo *models.Photo) (url string, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanPhotoUpload,
		tracer.String(tracer.AttrPhotoName, name),
		tracer.Int64(tracer.AttrPhotoBytes, photo.Size),
	)
	defer func() { span.End(err) }()

	start := time.Now()
	url, err = s.photos.Upload(ctx, name, photo.ContentType, photo.Content)
	if err == nil && s.metrics != nil {
		s.metrics.ObservePhotoUpload(time.Since(start).Seconds(), photo.Size)
	}
	return url, err
}

func (s *Service) insert(ctx context.Context, record *models.Record) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRecordInsert,
		tracer.String(tracer.AttrRecordID, record.ID.String()),
	)
	defer func() { span.End(err) }()
	return s.records.Insert(ctx, record)
}

// ListOwn returns the caller's records, newest first.
func (s *Service) ListOwn(ctx context.Context, ownerID id.UserID) (records []*models.Record, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanTrackingList,
		tracer.String(tracer.AttrUserID, ownerID.String()),
	)
	defer func() { span.End(err) }()

	records, err = s.records.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tracking records")
	}
	span.SetAttributes(tracer.Int(tracer.AttrResultSize, len(records)))
	return records, nil
}

// SearchByPhone returns every record with exactly this phone number,
// regardless of owner, newest first.
func (s *Service) SearchByPhone(ctx context.Context, phone string) (records []*models.Record, err error) {
	phone = strings.TrimSpace(phone)
	ctx, span := s.tracer.Start(ctx, tracer.SpanTrackingSearch,
		tracer.String(tracer.AttrPhoneHash, tracer.HashPhone(phone)),
	)
	defer func() { span.End(err) }()

	if phone == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "phone_number is required")
	}

	records, err = s.records.ListByPhone(ctx, phone)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search tracking records")
	}
	span.SetAttributes(tracer.Int(tracer.AttrResultSize, len(records)))
	return records, nil
}

// Update changes status and/or description of a record the caller owns.
// A missing record and someone else's record yield the same not-found error.
func (s *Service) Update(ctx context.Context, ownerID id.UserID, recordID id.RecordID, fields models.UpdateFields) (rec *models.Record, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanTrackingUpdate,
		tracer.String(tracer.AttrUserID, ownerID.String()),
		tracer.String(tracer.AttrRecordID, recordID.String()),
	)
	defer func() { span.End(err) }()

	if fields.Empty() {
		return nil, dErrors.New(dErrors.CodeValidation, "status or description is required")
	}

	rec, err = s.records.UpdateOwned(ctx, recordID, ownerID, fields)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update tracking record")
	}

	s.logAudit(ctx, "record_updated",
		"user_id", ownerID.String(),
		"record_id", recordID.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementRecordsUpdated()
	}
	return rec, nil
}
