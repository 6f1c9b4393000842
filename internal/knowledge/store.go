// Package knowledge persists generated-entity records in Postgres so
// downstream tooling can discover which entities have documentation and
// how significant they were. The store is a best-effort collaborator;
// callers treat its failures as warnings, never as job failures.
package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/patternscribe/scribe/internal/domain"
	"github.com/patternscribe/scribe/internal/llm/configuration"
)

// ErrNotFound reports a lookup miss.
var ErrNotFound = errors.New("entity not found")

// Entity is one generated-documentation record.
type Entity struct {
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	MaxSignificance  int       `json:"max_significance"`
	DocumentPath     string    `json:"document_path"`
	PatternsAnalyzed int       `json:"patterns_analyzed"`
	DiagramsWritten  int       `json:"diagrams_written"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Store is a Postgres-backed entity store.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool against the configured database and
// verifies it with a ping.
func NewStore(ctx context.Context, cfg configuration.KnowledgeConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("knowledge database unreachable: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Upsert inserts or refreshes an entity record keyed by name.
func (s *Store) Upsert(ctx context.Context, e Entity) error {
	query := `
		INSERT INTO generated_entities (
			name, entity_type, max_significance, document_path,
			patterns_analyzed, diagrams_written, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			entity_type = EXCLUDED.entity_type,
			max_significance = EXCLUDED.max_significance,
			document_path = EXCLUDED.document_path,
			patterns_analyzed = EXCLUDED.patterns_analyzed,
			diagrams_written = EXCLUDED.diagrams_written,
			updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query,
		e.Name, e.Type, e.MaxSignificance, e.DocumentPath,
		e.PatternsAnalyzed, e.DiagramsWritten)
	if err != nil {
		return fmt.Errorf("failed to upsert entity %q: %w", e.Name, err)
	}
	return nil
}

// Get returns the record for one entity name.
func (s *Store) Get(ctx context.Context, name string) (*Entity, error) {
	query := `
		SELECT name, entity_type, max_significance, document_path,
		       patterns_analyzed, diagrams_written, created_at, updated_at
		FROM generated_entities
		WHERE name = $1
	`
	var e Entity
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&e.Name, &e.Type, &e.MaxSignificance, &e.DocumentPath,
		&e.PatternsAnalyzed, &e.DiagramsWritten, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entity %q: %w", name, err)
	}
	return &e, nil
}

// Query lists records, optionally filtered by entity type, newest first.
func (s *Store) Query(ctx context.Context, entityType string) ([]Entity, error) {
	query := `
		SELECT name, entity_type, max_significance, document_path,
		       patterns_analyzed, diagrams_written, created_at, updated_at
		FROM generated_entities
	`
	args := []any{}
	if entityType != "" {
		query += " WHERE entity_type = $1"
		args = append(args, entityType)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(
			&e.Name, &e.Type, &e.MaxSignificance, &e.DocumentPath,
			&e.PatternsAnalyzed, &e.DiagramsWritten, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// Delete removes one entity record. Deleting a missing record is not an
// error.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM generated_entities WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete entity %q: %w", name, err)
	}
	return nil
}

// RecordGeneration upserts the entity produced by a successful job.
func (s *Store) RecordGeneration(ctx context.Context, req domain.GenerationRequest, result *domain.JobResult) error {
	maxSig := 0
	for _, p := range req.Patterns {
		if p.Significance > maxSig {
			maxSig = p.Significance
		}
	}
	return s.Upsert(ctx, Entity{
		Name:             req.EntityName,
		Type:             req.EntityType,
		MaxSignificance:  maxSig,
		DocumentPath:     result.DocumentPath,
		PatternsAnalyzed: result.PatternsAnalyzed,
		DiagramsWritten:  result.SuccessfulDiagrams,
	})
}
