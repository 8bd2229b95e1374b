package anomaly

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/chemstack/formulant/internal/model"
)

// SQLiteSink appends anomaly records to an embedded SQLite database, for
// deployments that want to query data-quality history with SQL instead of
// grepping a JSONL file.
type SQLiteSink struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS anomalies (
	id         TEXT PRIMARY KEY,
	cas        TEXT NOT NULL,
	stage      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	detail     TEXT,
	transient  INTEGER NOT NULL DEFAULT 0,
	request_id TEXT,
	at         DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_anomalies_cas ON anomalies(cas);
CREATE INDEX IF NOT EXISTS idx_anomalies_stage ON anomalies(stage);
`

// NewSQLite opens the anomaly database at dsn, configures WAL mode, and
// applies the schema.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	if dsn == "" {
		dsn = "anomalies.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "anomaly: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "anomaly: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "anomaly: migrate")
	}
	return &SQLiteSink{db: db}, nil
}

// Append inserts rec as a new row.
func (s *SQLiteSink) Append(rec model.AnomalyRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO anomalies (id, cas, stage, kind, detail, transient, request_id, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), rec.CAS, string(rec.Stage), rec.Kind, rec.Detail,
		boolToInt(rec.Transient), rec.RequestID, rec.At,
	)
	if err != nil {
		return eris.Wrap(err, "anomaly: insert")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
