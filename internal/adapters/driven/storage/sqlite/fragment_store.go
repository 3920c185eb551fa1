package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// Meta keys for the pinned embedding model.
const (
	metaEmbeddingModel      = "embedding_model"
	metaEmbeddingDimensions = "embedding_dimensions"
	metaTokenizer           = "chunk_tokenizer"
)

// fragmentStore implements driven.FragmentStore.
type fragmentStore struct {
	store *Store
}

var _ driven.FragmentStore = (*fragmentStore)(nil)

// Upsert stores or fully replaces fragments by ID in a single transaction.
// Every embedding must match the store's dimensionality: the pinned model's
// when one is recorded, otherwise that of the rows already stored.
func (s *fragmentStore) Upsert(ctx context.Context, fragments []domain.Fragment) error {
	if len(fragments) == 0 {
		return nil
	}
	if err := validateFragments(fragments); err != nil {
		return err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := writeFragments(ctx, tx, fragments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageError("committing transaction", err)
	}
	return nil
}

// ReplaceDocument deletes the document's fragments and writes the new set
// in one transaction. Readers see either the old set or the new one.
func (s *fragmentStore) ReplaceDocument(ctx context.Context, documentID string, fragments []domain.Fragment) error {
	for i := range fragments {
		if fragments[i].DocumentID != documentID {
			return fmt.Errorf("%w: fragment %s belongs to %s, not %s",
				domain.ErrInvalidInput, fragments[i].ID, fragments[i].DocumentID, documentID)
		}
	}
	if err := validateFragments(fragments); err != nil {
		return err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments WHERE document_id = ?", documentID); err != nil {
		return storageError("deleting document", err)
	}
	if len(fragments) > 0 {
		if err := writeFragments(ctx, tx, fragments); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storageError("committing transaction", err)
	}
	return nil
}

// Exists reports whether any fragment for the document is stored.
func (s *fragmentStore) Exists(ctx context.Context, documentID string) (bool, error) {
	var one int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM fragments WHERE document_id = ? LIMIT 1", documentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("checking document", err)
	}
	return true, nil
}

// Count returns the total number of stored fragments.
func (s *fragmentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fragments").Scan(&n); err != nil {
		return 0, storageError("counting fragments", err)
	}
	return n, nil
}

// All returns fragments matching the filter in insertion order.
func (s *fragmentStore) All(ctx context.Context, filter domain.Filter) ([]domain.Fragment, error) {
	query := `
		SELECT id, document_id, text, embedding, source_kind, channel, title,
			url, published_date, language, time_start, time_end
		FROM fragments`

	var (
		clauses []string
		args    []interface{}
	)
	if filter.Channel != "" {
		clauses = append(clauses, "channel = ?")
		args = append(args, filter.Channel)
	}
	if filter.Language != "" {
		clauses = append(clauses, "language = ?")
		args = append(args, filter.Language)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("querying fragments", err)
	}
	defer rows.Close()

	var fragments []domain.Fragment //nolint:prealloc // size unknown from query
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("iterating fragments", err)
	}

	return fragments, nil
}

// Reset deletes every fragment and the pinned model.
func (s *fragmentStore) Reset(ctx context.Context) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments"); err != nil {
		return storageError("deleting fragments", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM meta WHERE key IN (?, ?, ?)",
		metaEmbeddingModel, metaEmbeddingDimensions, metaTokenizer); err != nil {
		return storageError("clearing model", err)
	}

	if err := tx.Commit(); err != nil {
		return storageError("committing transaction", err)
	}
	return nil
}

// DeleteDocument removes all fragments of a document.
func (s *fragmentStore) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM fragments WHERE document_id = ?", documentID)
	if err != nil {
		return 0, storageError("deleting document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError("counting deleted fragments", err)
	}
	return int(n), nil
}

// EmbeddingModel returns the pinned model, or a zero value if none.
func (s *fragmentStore) EmbeddingModel(ctx context.Context) (domain.ModelInfo, error) {
	return readModel(ctx, s.store.db)
}

// PinEmbeddingModel records the model when none is pinned. A different
// model is rejected with domain.ErrModelMismatch.
func (s *fragmentStore) PinEmbeddingModel(ctx context.Context, model domain.ModelInfo) error {
	if model.Name == "" || model.Dimensions <= 0 {
		return fmt.Errorf("%w: model name and dimensions are required", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := readModel(ctx, tx)
	if err != nil {
		return err
	}
	merged, err := current.Merge(model)
	if err != nil {
		return err
	}
	if merged == current {
		return nil
	}

	for key, value := range map[string]string{
		metaEmbeddingModel:      merged.Name,
		metaEmbeddingDimensions: strconv.Itoa(merged.Dimensions),
		metaTokenizer:           merged.Tokenizer,
	} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value); err != nil {
			return storageError("pinning model", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageError("committing transaction", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// validateFragments rejects fragments without an id, text or embedding.
func validateFragments(fragments []domain.Fragment) error {
	for i := range fragments {
		if fragments[i].ID == "" || strings.TrimSpace(fragments[i].Text) == "" {
			return fmt.Errorf("%w: fragment %d has empty id or text", domain.ErrInvalidInput, i)
		}
		if len(fragments[i].Embedding) == 0 {
			return fmt.Errorf("%w: fragment %s has no embedding", domain.ErrInvalidInput, fragments[i].ID)
		}
	}
	return nil
}

// writeFragments checks dimensions against the store and upserts each
// fragment within tx. fragments must be non-empty.
func writeFragments(ctx context.Context, tx *sql.Tx, fragments []domain.Fragment) error {
	dims, err := expectedDimensions(ctx, tx)
	if err != nil {
		return err
	}
	if dims == 0 {
		dims = len(fragments[0].Embedding)
	}
	for i := range fragments {
		if len(fragments[i].Embedding) != dims {
			return fmt.Errorf("%w: fragment %s has %d dimensions, store expects %d",
				domain.ErrDimensionMismatch, fragments[i].ID, len(fragments[i].Embedding), dims)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fragments (id, document_id, text, embedding, source_kind, channel, title,
			url, published_date, language, time_start, time_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			text = excluded.text,
			embedding = excluded.embedding,
			source_kind = excluded.source_kind,
			channel = excluded.channel,
			title = excluded.title,
			url = excluded.url,
			published_date = excluded.published_date,
			language = excluded.language,
			time_start = excluded.time_start,
			time_end = excluded.time_end
	`)
	if err != nil {
		return storageError("preparing statement", err)
	}
	defer stmt.Close()

	for i := range fragments {
		f := &fragments[i]
		var start, end int
		if f.TimeRange != nil {
			start, end = f.TimeRange.Start, f.TimeRange.End
		}
		if _, err := stmt.ExecContext(ctx, f.ID, f.DocumentID, f.Text,
			float32SliceToBytes(f.Embedding), f.SourceKind, f.Channel, f.Title,
			f.URL, f.PublishedDate, f.Language,
			nullInt(start, f.TimeRange != nil), nullInt(end, f.TimeRange != nil)); err != nil {
			return storageError("saving fragment", err)
		}
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// readModel loads the pinned model from the meta table.
func readModel(ctx context.Context, q querier) (domain.ModelInfo, error) {
	rows, err := q.QueryContext(ctx, "SELECT key, value FROM meta WHERE key IN (?, ?, ?)",
		metaEmbeddingModel, metaEmbeddingDimensions, metaTokenizer)
	if err != nil {
		return domain.ModelInfo{}, storageError("reading model", err)
	}
	defer rows.Close()

	var model domain.ModelInfo
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.ModelInfo{}, storageError("scanning model", err)
		}
		switch key {
		case metaEmbeddingModel:
			model.Name = value
		case metaEmbeddingDimensions:
			model.Dimensions, _ = strconv.Atoi(value)
		case metaTokenizer:
			model.Tokenizer = value
		}
	}
	if err := rows.Err(); err != nil {
		return domain.ModelInfo{}, storageError("iterating model", err)
	}
	return model, nil
}

// expectedDimensions returns the dimensionality new fragments must have,
// or 0 when the store is unconstrained.
func expectedDimensions(ctx context.Context, q querier) (int, error) {
	model, err := readModel(ctx, q)
	if err != nil {
		return 0, err
	}
	if model.Dimensions > 0 {
		return model.Dimensions, nil
	}

	var size int
	err = q.QueryRowContext(ctx, "SELECT length(embedding) FROM fragments LIMIT 1").Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storageError("reading dimensions", err)
	}
	return size / 4, nil
}

// scanFragment scans a fragment from *sql.Rows.
func scanFragment(rows *sql.Rows) (*domain.Fragment, error) {
	var f domain.Fragment
	var embeddingBlob []byte
	var start, end sql.NullInt64

	if err := rows.Scan(&f.ID, &f.DocumentID, &f.Text, &embeddingBlob, &f.SourceKind,
		&f.Channel, &f.Title, &f.URL, &f.PublishedDate, &f.Language, &start, &end); err != nil {
		return nil, storageError("scanning fragment", err)
	}

	f.Embedding = bytesToFloat32Slice(embeddingBlob)
	if start.Valid && end.Valid {
		f.TimeRange = &domain.TimeRange{Start: int(start.Int64), End: int(end.Int64)}
	}

	return &f, nil
}
