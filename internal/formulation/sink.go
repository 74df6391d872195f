package formulation

import (
	"golang.org/x/exp/slog"
)

// Record describes one constraint group the formulator built or skipped.
type Record struct {
	Group   string
	Rows    int
	Mix     Mix
	Skipped bool
	Reason  string
}

// Sink receives one Record per constraint group.
type Sink interface {
	Record(Record)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Record)

func (f SinkFunc) Record(r Record) { f(r) }

// NopSink discards records.
type NopSink struct{}

func (NopSink) Record(Record) {}

type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink logs built groups at debug level and skipped groups at info.
func NewSlogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogSink{logger: logger}
}

func (s *slogSink) Record(r Record) {
	if r.Skipped {
		s.logger.Info("constraint group skipped", "group", r.Group, "mix", r.Mix.String(), "reason", r.Reason)
		return
	}
	s.logger.Debug("constraint group built", "group", r.Group, "rows", r.Rows, "mix", r.Mix.String())
}

// Recorder keeps every record in memory; useful for reporting and tests.
type Recorder struct {
	Records []Record
}

func (r *Recorder) Record(rec Record) { r.Records = append(r.Records, rec) }

// Built returns the names of built groups in order.
func (r *Recorder) Built() []string {
	var out []string
	for _, rec := range r.Records {
		if !rec.Skipped {
			out = append(out, rec.Group)
		}
	}
	return out
}

// Skipped returns the names of skipped groups in order.
func (r *Recorder) Skipped() []string {
	var out []string
	for _, rec := range r.Records {
		if rec.Skipped {
			out = append(out, rec.Group)
		}
	}
	return out
}

type teeSink []Sink

func (t teeSink) Record(r Record) {
	for _, s := range t {
		s.Record(r)
	}
}

// Tee fans records out to every sink.
func Tee(sinks ...Sink) Sink { return teeSink(sinks) }
