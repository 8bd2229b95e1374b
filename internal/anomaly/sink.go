// Package anomaly provides durable sinks for data-quality records. The sink
// is a separate, machine-parseable channel: post-hoc analysis must not
// require scraping free-text operational logs.
package anomaly

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chemstack/formulant/internal/model"
)

// Sink appends anomaly records to durable storage. Implementations must be
// safe for concurrent use.
type Sink interface {
	Append(rec model.AnomalyRecord) error
	Close() error
}

// Mirror writes every record to the sink, logging rather than failing when
// the sink itself has trouble — a broken sink must never fail a request.
func Mirror(s Sink, recs []model.AnomalyRecord, requestID string) {
	for _, rec := range recs {
		rec.RequestID = requestID
		if err := s.Append(rec); err != nil {
			zap.L().Error("anomaly sink append failed",
				zap.String("cas", rec.CAS),
				zap.String("stage", string(rec.Stage)),
				zap.Error(err),
			)
		}
	}
}

// Config selects and configures a sink driver.
type Config struct {
	Driver string // "jsonl", "sqlite", or "none"
	Path   string
}

// New builds the sink named by cfg.Driver.
func New(cfg Config) (Sink, error) {
	switch cfg.Driver {
	case "", "jsonl":
		return NewJSONL(cfg.Path)
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "none":
		return Nop{}, nil
	default:
		return nil, eris.Errorf("anomaly: unknown sink driver %q", cfg.Driver)
	}
}

// Nop discards all records. Used in tests and one-shot CLI runs where the
// anomalies are already printed.
type Nop struct{}

func (Nop) Append(model.AnomalyRecord) error { return nil }
func (Nop) Close() error                     { return nil }
