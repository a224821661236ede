package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("run not found")

// GetRun returns the run record for id, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, topology, summary, start_tick, final_tick
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run ordered by id. Run ids are time-ordered, so
// this is creation order.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topology, summary, start_tick, final_tick
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadDeliveries returns a run's deliveries in delivery order.
//
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadDeliveries(ctx context.Context, runID string) ([]Delivery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tick, sink, material
		FROM deliveries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := []Delivery{}
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.Seq, &d.Tick, &d.Sink, &d.Material); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return deliveries, nil
}

// DeliveryCounts returns delivered totals per sink for a run.
func (s *Store) DeliveryCounts(ctx context.Context, runID string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sink, COUNT(*)
		FROM deliveries
		WHERE run_id = ?
		GROUP BY sink
		ORDER BY sink COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query delivery counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var sink string
		var n int64
		if err := rows.Scan(&sink, &n); err != nil {
			return nil, fmt.Errorf("scan delivery count: %w", err)
		}
		counts[sink] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery counts: %w", err)
	}
	return counts, nil
}

// ReadSamples returns the samples of one component in tick order. An empty
// component returns every component, ordered by tick then component.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadSamples(ctx context.Context, runID, component string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tick, component, kind, value
		FROM samples
		WHERE run_id = ? AND (? = '' OR component = ?)
		ORDER BY tick ASC, component COLLATE BINARY ASC
	`, runID, component, component)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.Tick, &smp.Component, &smp.Kind, &smp.Value); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		summaryJSON string
		finalTick   sql.NullInt64
	)
	if err := row.Scan(&run.ID, &run.Topology, &summaryJSON, &run.StartTick, &finalTick); err != nil {
		return Run{}, err
	}

	summary, err := unmarshalSummary(summaryJSON)
	if err != nil {
		return Run{}, err
	}
	run.Summary = summary
	if finalTick.Valid {
		ft := finalTick.Int64
		run.FinalTick = &ft
	}
	return run, nil
}
