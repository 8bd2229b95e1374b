package anomaly

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chemstack/formulant/internal/model"
)

// JSONLSink appends one JSON object per line to a file. It reuses zap's JSON
// encoder rather than hand-rolling one: the encoder is buffered, escaping is
// correct, and writes of a single entry are atomic under the core's lock.
type JSONLSink struct {
	log  *zap.Logger
	file *os.File
}

// NewJSONL opens (or creates) the anomaly log at path in append mode.
func NewJSONL(path string) (*JSONLSink, error) {
	if path == "" {
		path = "anomalies.jsonl"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "anomaly: open %s", path)
	}

	// Bare records: no level or message keys, just the fields.
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "at",
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zap.InfoLevel)

	return &JSONLSink{log: zap.New(core), file: f}, nil
}

// Append writes rec as one JSON line.
func (s *JSONLSink) Append(rec model.AnomalyRecord) error {
	fields := []zap.Field{
		zap.String("cas", rec.CAS),
		zap.String("stage", string(rec.Stage)),
		zap.String("kind", rec.Kind),
	}
	if rec.Detail != "" {
		fields = append(fields, zap.String("detail", rec.Detail))
	}
	if rec.Transient {
		fields = append(fields, zap.Bool("transient", true))
	}
	if rec.RequestID != "" {
		fields = append(fields, zap.String("request_id", rec.RequestID))
	}
	s.log.Info("", fields...)
	return nil
}

// Close flushes and closes the underlying file.
func (s *JSONLSink) Close() error {
	_ = s.log.Sync()
	return s.file.Close()
}
