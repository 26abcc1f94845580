package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RecordsCreated      prometheus.Counter
	RecordsUpdated      prometheus.Counter
	OrphanedPhotos      prometheus.Counter
	PhotoUploadDuration prometheus.Histogram
	PhotoBytes          prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "phonetrack_records_created_total",
			Help: "Total number of tracking records created",
		}),
		RecordsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "phonetrack_records_updated_total",
			Help: "Total number of tracking records updated",
		}),
		// Photos uploaded for a record whose insert then failed. Nothing deletes them.
		OrphanedPhotos: factory.NewCounter(prometheus.CounterOpts{
			Name: "phonetrack_orphaned_photos_total",
			Help: "Uploaded photos left without a record",
		}),
		PhotoUploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "phonetrack_photo_upload_duration_seconds",
			Help:    "Time spent uploading photos to the blob store",
			Buckets: prometheus.DefBuckets,
		}),
		PhotoBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "phonetrack_photo_bytes",
			Help:    "Size of uploaded photos",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
		}),
	}
}

func (m *Metrics) IncrementRecordsCreated() {
	m.RecordsCreated.Inc()
}

func (m *Metrics) IncrementRecordsUpdated() {
	m.RecordsUpdated.Inc()
}

func (m *Metrics) IncrementOrphanedPhotos() {
	m.OrphanedPhotos.Inc()
}

func (m *Metrics) ObservePhotoUpload(durationSeconds float64, size int64) {
	m.PhotoUploadDuration.Observe(durationSeconds)
	m.PhotoBytes.Observe(float64(size))
}
