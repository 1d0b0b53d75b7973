package analytics

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// LogSink writes records as CSV rows at debug level. The header row is
// written once, before the first record that carries a bid, so that it
// lists the issue columns.
type LogSink struct {
	logger zerolog.Logger
	header sync.Once
}

// NewLogSink creates a sink that logs through logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, r Record) error {
	if r.Bid != nil {
		s.header.Do(func() { s.logger.Debug().Msg(r.CSVLabels()) })
	}
	s.logger.Debug().Int("round", r.Round).Str("action", r.Action).Msg(r.CSV())
	return nil
}

func (s *LogSink) Close() error { return nil }

// Memory keeps records in memory, for tests and reports.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

func (m *Memory) Write(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *Memory) Close() error { return nil }

// Records returns a copy of everything written so far.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

type multi []Sink

// Multi fans records out to every sink. All sinks are written even when
// one fails; the errors are joined.
func Multi(sinks ...Sink) Sink { return multi(sinks) }

func (m multi) Write(ctx context.Context, r Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discard struct{}

// Discard drops every record.
var Discard Sink = discard{}

func (discard) Write(context.Context, Record) error { return nil }
func (discard) Close() error                        { return nil }
