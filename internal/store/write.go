package store

import (
	"context"
	"fmt"
)

// CreateRun inserts a run record. Creating the same id twice is an error.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	summaryJSON, err := marshalSummary(run.Summary)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, topology, summary, start_tick)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Topology, summaryJSON, run.StartTick)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun records the last tick of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, finalTick int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET final_tick = ? WHERE id = ?
	`, finalTick, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w", ErrRunNotFound)
	}
	return nil
}

// WriteSamples inserts a batch of samples for one run in a single
// transaction. Uses ON CONFLICT DO NOTHING so re-recording a tick is a no-op.
func (s *Store) WriteSamples(ctx context.Context, runID string, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write samples: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (run_id, tick, component, kind, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write samples: prepare: %w", err)
	}
	defer stmt.Close()

	for _, smp := range samples {
		if _, err := stmt.ExecContext(ctx, runID, smp.Tick, smp.Component, smp.Kind, smp.Value); err != nil {
			return fmt.Errorf("write samples: %s@%d: %w", smp.Component, smp.Tick, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write samples: commit: %w", err)
	}
	return nil
}

// WriteDelivery appends a delivery. Uses ON CONFLICT DO NOTHING for
// idempotency on (run_id, seq).
//
// Note: the run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteDelivery(ctx context.Context, runID string, d Delivery) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (run_id, seq, tick, sink, material)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, runID, d.Seq, d.Tick, d.Sink, d.Material)
	if err != nil {
		return fmt.Errorf("write delivery: %w", err)
	}
	return nil
}
