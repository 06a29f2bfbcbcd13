package cursor

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type sqlStoreMetrics struct {
	sqlMarkIngestedDuration prometheus.Histogram
	sqlLookupDuration       prometheus.Histogram
}

func initializeSqlStoreMetrics() *sqlStoreMetrics {
	metrics := new(sqlStoreMetrics)

	metrics.sqlMarkIngestedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "securityiq_connector_sql_mark_ingested_duration",
		Help: "The amount of time it took to mark an alert as ingested in the db",
	})

	metrics.sqlLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "securityiq_connector_sql_cursor_lookup_duration",
		Help: "The amount of time it took to look up an alert in the ingestion cursor",
	})

	return metrics
}

// SqlStore persists the ingestion cursor in postgres.  The insert relies on
// ON CONFLICT DO NOTHING so that check-and-mark is atomic per remote id even
// when scheduled and manual polls run at the same time.
type SqlStore struct {
	database *sql.DB
	metrics  *sqlStoreMetrics
}

func NewSqlStore(database *sql.DB) (*SqlStore, error) {
	return &SqlStore{
		database: database,
		metrics:  initializeSqlStoreMetrics(),
	}, nil
}

func (s *SqlStore) IsIngested(ctx context.Context, remoteID string) (bool, error) {

	callDurationTimer := prometheus.NewTimer(s.metrics.sqlLookupDuration)
	defer callDurationTimer.ObserveDuration()

	statement, err := s.database.Prepare("SELECT 1 FROM ingested_alerts WHERE remote_id = $1")
	if err != nil {
		return false, err
	}
	defer statement.Close()

	var one int
	err = statement.QueryRowContext(ctx, remoteID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *SqlStore) TryMark(ctx context.Context, remoteID string) (bool, error) {

	callDurationTimer := prometheus.NewTimer(s.metrics.sqlMarkIngestedDuration)
	defer callDurationTimer.ObserveDuration()

	statement, err := s.database.Prepare(
		"INSERT INTO ingested_alerts (remote_id, ingested_at) VALUES ($1, NOW()) ON CONFLICT (remote_id) DO NOTHING")
	if err != nil {
		return false, err
	}
	defer statement.Close()

	results, err := statement.ExecContext(ctx, remoteID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := results.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (s *SqlStore) Unmark(ctx context.Context, remoteID string) error {

	statement, err := s.database.Prepare("DELETE FROM ingested_alerts WHERE remote_id = $1")
	if err != nil {
		return err
	}
	defer statement.Close()

	_, err = statement.ExecContext(ctx, remoteID)
	return err
}
