package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemadiff/internal/model"
	"github.com/conduit-lang/schemadiff/internal/modeldoc"
)

var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/conduit-lang/schemadiff/snapshots"))

// Snapshot is a stored model. Document is only populated by GetSnapshot.
type Snapshot struct {
	ID        string
	Name      string
	TypeCount int
	CreatedAt time.Time
	Document  *modeldoc.Document
}

// Model converts the stored document back to a validated model
func (s *Snapshot) Model() (*model.Model, error) {
	if s.Document == nil {
		return nil, fmt.Errorf("snapshot %s: document not loaded", s.ID)
	}
	return s.Document.Model()
}

// SnapshotID derives the content id of a model. Equal models share an id no matter
// how their source documents were ordered.
func SnapshotID(m *model.Model) (string, error) {
	data, err := modeldoc.CanonicalJSON(m)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(snapshotNamespace, data).String(), nil
}

// SaveSnapshot stores a model under its content id. Saving an already stored model keeps
// the first record and returns it.
func (s *Store) SaveSnapshot(ctx context.Context, name string, m *model.Model) (*Snapshot, error) {
	id, err := SnapshotID(m)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = id[:8]
	}

	doc := modeldoc.FromModel(m)
	body, err := msgpack.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := s.dialect.rebind(`
INSERT INTO schemadiff_snapshots (id, name, type_count, created_at, body)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING
`)
	if _, err := s.db.ExecContext(ctx, query, id, name, doc.TypeCount(), s.timestamp(), body); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", convertError(err))
	}

	s.logger.Debug("snapshot saved", zap.String("id", id), zap.String("name", name))
	return s.GetSnapshot(ctx, id)
}

// GetSnapshot loads a snapshot with its document
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	query := s.dialect.rebind(`
SELECT id, name, type_count, created_at, body
FROM schemadiff_snapshots
WHERE id = ?
`)
	snap := &Snapshot{}
	var createdAt string
	var body []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&snap.ID, &snap.Name, &snap.TypeCount, &createdAt, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, convertError(err))
	}

	if snap.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}

	var doc modeldoc.Document
	if err := msgpack.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	snap.Document = &doc

	return snap, nil
}

// ListSnapshots returns all snapshots, oldest first, without their documents
func (s *Store) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	query := `
SELECT id, name, type_count, created_at
FROM schemadiff_snapshots
ORDER BY created_at ASC, id ASC
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.TypeCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if snap.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}
