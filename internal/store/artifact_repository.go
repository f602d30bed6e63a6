package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"taskforge/internal/domain"
)

// SaveArtifact upserts an Artifact and its embedding. All embeddings stored
// for a given ProjectID must share one dimension; a mismatching write is
// rejected with ErrDimensionMismatch rather than silently corrupting the
// collection's distance math (spec §9).
func (s *LocalStore) SaveArtifact(ctx context.Context, a *domain.Artifact) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	metadata, err := marshalJSON(a.Metadata)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDimensionLocked(ctx, &a.ProjectID, a.ID, len(a.Embedding)); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin save artifact tx: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO artifacts(id, project_id, source_id, source_type, content, metadata_json, created_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET content=excluded.content, metadata_json=excluded.metadata_json`,
		a.ID, a.ProjectID, a.SourceID, string(a.SourceType), a.Content, metadata, a.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: saving artifact %s: %v", domain.ErrPersistence, a.ID, err)
	}

	blob := encodeFloat32(a.Embedding)
	_, err = tx.ExecContext(ctx, `INSERT INTO artifacts_vec(artifact_id, embedding) VALUES (?,?)
		ON CONFLICT(artifact_id) DO UPDATE SET embedding=excluded.embedding`, a.ID, blob)
	if err != nil {
		return fmt.Errorf("%w: saving embedding for artifact %s: %v", domain.ErrPersistence, a.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing artifact save: %v", domain.ErrPersistence, err)
	}
	return nil
}

// checkDimensionLocked compares dim against an existing artifact's embedding
// length, skipping the artifact being overwritten. When projectID is nil the
// whole collection (across all projects) is consulted, matching
// find_similar's global-search mode.
func (s *LocalStore) checkDimensionLocked(ctx context.Context, projectID *string, excludeID string, dim int) error {
	query := `SELECT LENGTH(v.embedding)/4 FROM artifacts_vec v
		JOIN artifacts a ON a.id = v.artifact_id
		WHERE a.id != ?`
	args := []any{excludeID}
	if projectID != nil {
		query += ` AND a.project_id = ?`
		args = append(args, *projectID)
	}
	query += ` LIMIT 1`

	var existingLen sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&existingLen)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: checking embedding dimension: %v", domain.ErrPersistence, err)
	}
	scope := "collection"
	if projectID != nil {
		scope = "project " + *projectID
	}
	if existingLen.Valid && int(existingLen.Int64) != dim {
		return fmt.Errorf("%w: %s uses dimension %d, got %d", domain.ErrDimensionMismatch, scope, existingLen.Int64, dim)
	}
	return nil
}

// FindArtifacts returns Artifacts (without similarity scoring) matching filter.
func (s *LocalStore) FindArtifacts(ctx context.Context, filter domain.ArtifactFilter) ([]domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT a.id, a.project_id, a.source_id, a.source_type, a.content, a.metadata_json, a.created_at, v.embedding
		FROM artifacts a LEFT JOIN artifacts_vec v ON v.artifact_id = a.id`
	var args []any
	switch filter.Kind {
	case domain.ArtifactFilterByID:
		query += " WHERE a.id = ?"
		args = append(args, filter.ID)
	case domain.ArtifactFilterByProjectID:
		query += " WHERE a.project_id = ?"
		args = append(args, filter.ProjectID)
	case domain.ArtifactFilterBySourceID:
		query += " WHERE a.source_id = ?"
		args = append(args, filter.SourceID)
	case domain.ArtifactFilterBySourceType:
		query += " WHERE a.source_type = ?"
		args = append(args, string(filter.SourceType))
	}
	query += " ORDER BY a.created_at ASC, a.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: finding artifacts: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.Artifact
	for rows.Next() {
		a, err := scanArtifactRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteArtifact removes an Artifact and its embedding row. Idempotent.
func (s *LocalStore) DeleteArtifact(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete artifact tx: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts_vec WHERE artifact_id = ?`, id); err != nil {
		return fmt.Errorf("%w: deleting embedding for artifact %s: %v", domain.ErrPersistence, id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: deleting artifact %s: %v", domain.ErrPersistence, id, err)
	}
	return tx.Commit()
}

// FindSimilar returns up to limit artifacts closest to query by cosine
// distance, ascending (spec §4.1 find_similar). projectID, if non-nil,
// restricts candidates to that project; threshold, if non-nil, drops any
// result whose distance exceeds it. Dimension is validated against
// projectID's collection when given, or against the first artifact found
// otherwise. Distances are reported to 6 decimal places for deterministic
// comparison in tests.
func (s *LocalStore) FindSimilar(ctx context.Context, query []float32, limit int, threshold *float64, projectID *string) ([]domain.ScoredArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkDimensionLocked(ctx, projectID, "", len(query)); err != nil {
		return nil, err
	}

	q := encodeFloat32(query)
	sqlStr := fmt.Sprintf(`SELECT a.id, a.project_id, a.source_id, a.source_type, a.content, a.metadata_json, a.created_at, v.embedding,
		%s(v.embedding, ?) AS distance
		FROM artifacts a JOIN artifacts_vec v ON v.artifact_id = a.id`, distanceFuncName)
	args := []any{q}
	if projectID != nil {
		sqlStr += ` WHERE a.project_id = ?`
		args = append(args, *projectID)
	}
	sqlStr += ` ORDER BY distance ASC, a.id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: finding similar artifacts: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.ScoredArtifact
	for rows.Next() {
		var id, pID, sourceID, sourceType, content, createdAt string
		var metadataJSON sql.NullString
		var embedding []byte
		var distance float64
		if err := rows.Scan(&id, &pID, &sourceID, &sourceType, &content, &metadataJSON, &createdAt, &embedding, &distance); err != nil {
			return nil, fmt.Errorf("%w: scanning similarity row: %v", domain.ErrPersistence, err)
		}
		rounded := math.Round(distance*1e6) / 1e6
		if threshold != nil && rounded > *threshold {
			continue
		}
		a := domain.Artifact{
			ID:         id,
			ProjectID:  pID,
			SourceID:   sourceID,
			SourceType: domain.ArtifactSourceType(sourceType),
			Content:    content,
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("%w: parsing artifact created_at: %v", domain.ErrPersistence, err)
		}
		if metadataJSON.Valid {
			if err := unmarshalJSON(metadataJSON.String, &a.Metadata); err != nil {
				return nil, err
			}
		}
		a.Embedding = decodeEmbeddingBlob(embedding)
		out = append(out, domain.ScoredArtifact{
			Artifact: a,
			Distance: rounded,
		})
	}
	return out, rows.Err()
}

func scanArtifactRow(rows *sql.Rows) (*domain.Artifact, error) {
	var a domain.Artifact
	var sourceType, createdAt string
	var metadataJSON sql.NullString
	var embedding []byte
	if err := rows.Scan(&a.ID, &a.ProjectID, &a.SourceID, &sourceType, &a.Content, &metadataJSON, &createdAt, &embedding); err != nil {
		return nil, fmt.Errorf("%w: scanning artifact row: %v", domain.ErrPersistence, err)
	}
	a.SourceType = domain.ArtifactSourceType(sourceType)
	var err error
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("%w: parsing artifact created_at: %v", domain.ErrPersistence, err)
	}
	if metadataJSON.Valid {
		if err := unmarshalJSON(metadataJSON.String, &a.Metadata); err != nil {
			return nil, err
		}
	}
	a.Embedding = decodeEmbeddingBlob(embedding)
	return &a, nil
}

// encodeFloat32 packs a []float32 into a little-endian blob, matching the
// layout decodeFloat32 (vec_compat.go) and the native sqlite-vec extension
// both expect.
func encodeFloat32(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// decodeEmbeddingBlob decodes an embedding column written by encodeFloat32.
// Rows bulk-loaded from an external export (e.g. a JSON vector dump copied
// straight into artifacts_vec.embedding) carry a JSON array instead; those
// are detected by their leading '[' and parsed with fastParseVectorJSON
// rather than rejected as a malformed binary blob.
func decodeEmbeddingBlob(b []byte) []float32 {
	if len(b) > 0 && b[0] == '[' {
		v, err := fastParseVectorJSON(b, nil)
		if err == nil {
			return v
		}
	}
	if len(b)%4 != 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
