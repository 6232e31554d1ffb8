package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// PersonalizationMetrics counts the storefront's personalization traffic.
// A nil *PersonalizationMetrics is valid and records nothing.
type PersonalizationMetrics struct {
	linesAdded      *Counter
	recordsSaved    *Counter
	saveFailures    *Counter
	replaceConflict *Counter
	imagesServed    *Counter
	imageBytes      *Histogram
	replaceDuration *Histogram
}

// NewPersonalizationMetrics creates the instruments on meter
func NewPersonalizationMetrics(meter metric.Meter) (*PersonalizationMetrics, error) {
	m := &PersonalizationMetrics{}
	var err error

	if m.linesAdded, err = NewCounter(meter,
		"personalizer_cart_lines_added_total",
		"Cart lines created through the personalization editor",
		"{line}",
	); err != nil {
		return nil, err
	}
	if m.recordsSaved, err = NewCounter(meter,
		"personalizer_records_saved_total",
		"Personalization records stored",
		"{record}",
	); err != nil {
		return nil, err
	}
	if m.saveFailures, err = NewCounter(meter,
		"personalizer_record_save_failures_total",
		"Personalization records skipped because storing them failed",
		"{record}",
	); err != nil {
		return nil, err
	}
	if m.replaceConflict, err = NewCounter(meter,
		"personalizer_replace_conflicts_total",
		"Design replacements rejected because the line was locked by another request",
		"{request}",
	); err != nil {
		return nil, err
	}
	if m.imagesServed, err = NewCounter(meter,
		"personalizer_images_served_total",
		"Personalization images returned to clients",
		"{image}",
	); err != nil {
		return nil, err
	}
	if m.imageBytes, err = NewHistogram(meter, HistogramOpts{
		Name:        "personalizer_image_size_bytes",
		Description: "Size of stored personalization images",
		Unit:        "By",
		Boundaries:  ImageSizeBuckets,
	}); err != nil {
		return nil, err
	}
	if m.replaceDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "personalizer_replace_duration_seconds",
		Description: "Time spent replacing the designs of a cart line",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordLineAdded counts a new cart line
func (m *PersonalizationMetrics) RecordLineAdded(ctx context.Context) {
	if m == nil {
		return
	}
	m.linesAdded.Inc(ctx)
}

// RecordSaved counts a stored record and the size of its preview
func (m *PersonalizationMetrics) RecordSaved(ctx context.Context, areaKey string, previewSize int) {
	if m == nil {
		return
	}
	m.recordsSaved.Inc(ctx, AttrAreaKey.String(areaKey))
	if previewSize > 0 {
		m.imageBytes.Record(ctx, float64(previewSize), AttrImageKind.String("preview"))
	}
}

// RecordSaveFailure counts a record that could not be stored
func (m *PersonalizationMetrics) RecordSaveFailure(ctx context.Context, areaKey string) {
	if m == nil {
		return
	}
	m.saveFailures.Inc(ctx, AttrAreaKey.String(areaKey))
}

// RecordReplaceConflict counts a replacement refused by the line lock
func (m *PersonalizationMetrics) RecordReplaceConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.replaceConflict.Inc(ctx)
}

// RecordImageServed counts an image response
func (m *PersonalizationMetrics) RecordImageServed(ctx context.Context, kind string, thumbnail bool) {
	if m == nil {
		return
	}
	m.imagesServed.Inc(ctx, AttrImageKind.String(kind), AttrThumbnail.Bool(thumbnail))
}

// ObserveReplace records the duration of a replacement and its outcome
func (m *PersonalizationMetrics) ObserveReplace(ctx context.Context, d time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.replaceDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}
