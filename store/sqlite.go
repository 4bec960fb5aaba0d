package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/milosgajdos/go-abc/pmc"
	"github.com/milosgajdos/go-abc/population"

	_ "modernc.org/sqlite" // SQLite driver
)

// timeFormat is a fixed width timestamp format which sorts lexicographically
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run is a summary of a stored sampler run.
type Run struct {
	// ID is the run identifier
	ID string
	// CreatedAt is the time the run was stored
	CreatedAt time.Time
	// State is the terminal sampler state
	State string
	// Names are fitted parameter names
	Names []string
	// Populations is the number of stored populations
	Populations int
	// Threshold is the last derived distance threshold
	Threshold float64
}

// Store stores sampler results in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and initializes its schema.
// Use ":memory:" for an in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer; it also keeps in-memory databases alive
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the result of a run and returns the new run id.
func (s *Store) Save(ctx context.Context, res *pmc.Result) (string, error) {
	if res == nil || len(res.Populations) == 0 {
		return "", fmt.Errorf("empty result")
	}

	if len(res.Thresholds) != len(res.Populations) || len(res.Trials) != len(res.Populations) {
		return "", fmt.Errorf("inconsistent result: %d populations, %d thresholds, %d trial counts",
			len(res.Populations), len(res.Thresholds), len(res.Trials))
	}

	names, err := json.Marshal(res.Names)
	if err != nil {
		return "", fmt.Errorf("failed to encode names: %w", err)
	}

	anomalies, err := json.Marshal(res.Anomalies)
	if err != nil {
		return "", fmt.Errorf("failed to encode anomalies: %w", err)
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, state, names, anomalies) VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(timeFormat), res.State.String(), string(names), string(anomalies),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, pop := range res.Populations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO populations (run_id, iteration, threshold, next_threshold, trials) VALUES (?, ?, ?, ?, ?)`,
			id, pop.Iteration(), pop.Threshold(), res.Thresholds[i], res.Trials[i],
		); err != nil {
			return "", fmt.Errorf("failed to insert population %d: %w", pop.Iteration(), err)
		}

		for j, p := range pop.Particles() {
			params, err := json.Marshal(p.Params)
			if err != nil {
				return "", fmt.Errorf("failed to encode particle params: %w", err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO particles (run_id, iteration, idx, params, weight, distance) VALUES (?, ?, ?, ?, ?, ?)`,
				id, pop.Iteration(), j, string(params), p.Weight, p.Distance,
			); err != nil {
				return "", fmt.Errorf("failed to insert particle %d of population %d: %w", j, pop.Iteration(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	return id, nil
}

// Runs returns summaries of all stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.state, r.names, COUNT(p.iteration),
		       COALESCE((SELECT next_threshold FROM populations
		                 WHERE run_id = r.id ORDER BY iteration DESC LIMIT 1), 0)
		FROM runs r
		LEFT JOIN populations p ON p.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			createdAt string
			names     string
		)
		if err := rows.Scan(&run.ID, &createdAt, &run.State, &names, &run.Populations, &run.Threshold); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if run.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("invalid run %s timestamp: %w", run.ID, err)
		}

		if err := json.Unmarshal([]byte(names), &run.Names); err != nil {
			return nil, fmt.Errorf("invalid run %s names: %w", run.ID, err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return runs, nil
}

// Latest returns the id of the most recently stored run.
// It returns sql.ErrNoRows if the store is empty.
func (s *Store) Latest(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if err != nil {
		return "", err
	}

	return id, nil
}

// Load loads the result of run id.
// The loaded result can be resumed with pmc.Sampler.Resume.
func (s *Store) Load(ctx context.Context, id string) (*pmc.Result, error) {
	var state, names, anomalies string
	if err := s.db.QueryRowContext(ctx,
		`SELECT state, names, anomalies FROM runs WHERE id = ?`, id,
	).Scan(&state, &names, &anomalies); err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	res := &pmc.Result{}

	var err error
	if res.State, err = pmc.ParseState(state); err != nil {
		return nil, fmt.Errorf("invalid run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(names), &res.Names); err != nil {
		return nil, fmt.Errorf("invalid run %s names: %w", id, err)
	}
	if err := json.Unmarshal([]byte(anomalies), &res.Anomalies); err != nil {
		return nil, fmt.Errorf("invalid run %s anomalies: %w", id, err)
	}

	type meta struct {
		iter      int
		threshold float64
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, threshold, next_threshold, trials FROM populations WHERE run_id = ? ORDER BY iteration`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query populations: %w", err)
	}

	var pops []meta
	for rows.Next() {
		var (
			m      meta
			next   float64
			trials int
		)
		if err := rows.Scan(&m.iter, &m.threshold, &next, &trials); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan population: %w", err)
		}
		pops = append(pops, m)
		res.Thresholds = append(res.Thresholds, next)
		res.Trials = append(res.Trials, trials)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read populations: %w", err)
	}

	for _, m := range pops {
		particles, err := s.particles(ctx, id, m.iter)
		if err != nil {
			return nil, err
		}

		pop, err := population.New(m.iter, m.threshold, particles)
		if err != nil {
			return nil, fmt.Errorf("invalid population %d: %w", m.iter, err)
		}
		res.Populations = append(res.Populations, pop)
	}

	return res, nil
}

// particles loads particles of population iter of run id.
func (s *Store) particles(ctx context.Context, id string, iter int) ([]population.Particle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT params, weight, distance FROM particles WHERE run_id = ? AND iteration = ? ORDER BY idx`, id, iter)
	if err != nil {
		return nil, fmt.Errorf("failed to query particles: %w", err)
	}
	defer rows.Close()

	var particles []population.Particle
	for rows.Next() {
		var (
			p      population.Particle
			params string
		)
		if err := rows.Scan(&params, &p.Weight, &p.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan particle: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &p.Params); err != nil {
			return nil, fmt.Errorf("invalid particle params: %w", err)
		}
		particles = append(particles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read particles: %w", err)
	}

	return particles, nil
}
