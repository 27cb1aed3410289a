package pipeline

import (
	"log/slog"
	"time"
)

// EmbedReport summarizes one embedding pipeline run.
type EmbedReport struct {
	attempted int
	succeeded int
	failed    int
	batches   int
	elapsed   time.Duration
}

// NewEmbedReport creates an EmbedReport.
func NewEmbedReport(attempted, succeeded, failed, batches int, elapsed time.Duration) EmbedReport {
	return EmbedReport{
		attempted: attempted,
		succeeded: succeeded,
		failed:    failed,
		batches:   batches,
		elapsed:   elapsed,
	}
}

// Attempted returns the number of records selected for processing.
func (r EmbedReport) Attempted() int { return r.attempted }

// Succeeded returns the number of embeddings committed.
func (r EmbedReport) Succeeded() int { return r.succeeded }

// Failed returns the number of records that failed.
func (r EmbedReport) Failed() int { return r.failed }

// Batches returns the number of committed batches.
func (r EmbedReport) Batches() int { return r.batches }

// Elapsed returns the wall-clock duration of the run.
func (r EmbedReport) Elapsed() time.Duration { return r.elapsed }

// Rate returns the throughput in successfully embedded images per second.
func (r EmbedReport) Rate() float64 {
	secs := r.elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.succeeded) / secs
}

// LogAttrs returns slog attributes for the run summary.
func (r EmbedReport) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("attempted", r.attempted),
		slog.Int("succeeded", r.succeeded),
		slog.Int("failed", r.failed),
		slog.Int("batches", r.batches),
		slog.Duration("elapsed", r.elapsed),
		slog.Float64("images_per_sec", r.Rate()),
	}
}
