package store

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemadiff/internal/changelog"
)

// ChangeSet is a recorded change log between two snapshots. Entries are only populated
// by GetChangeSet and FindChangeSet.
type ChangeSet struct {
	ID          string
	Name        string
	LeftID      string
	RightID     string
	EntryCount  int
	Destructive int
	CreatedAt   time.Time
	Entries     []changelog.Entry
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// RecordChangeSet stores the change log that turns the left snapshot into the right one
func (s *Store) RecordChangeSet(ctx context.Context, leftID, rightID string, entries []changelog.Entry) (*ChangeSet, error) {
	body, err := changelog.Marshal(entries)
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{
		ID:         s.newID(),
		Name:       changelog.Name(entries),
		LeftID:     leftID,
		RightID:    rightID,
		EntryCount: len(entries),
		CreatedAt:  s.now().UTC(),
		Entries:    entries,
	}
	for _, e := range entries {
		if e.Destructive() {
			cs.Destructive++
		}
	}

	query := s.dialect.rebind(`
INSERT INTO schemadiff_change_sets (id, name, left_id, right_id, entry_count, destructive, created_at, body)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	_, err = s.db.ExecContext(ctx, query,
		cs.ID, cs.Name, cs.LeftID, cs.RightID, cs.EntryCount, cs.Destructive,
		cs.CreatedAt.Format(time.RFC3339Nano), body)
	if err != nil {
		return nil, fmt.Errorf("failed to record change set: %w", convertError(err))
	}

	s.logger.Info("change set recorded",
		zap.String("id", cs.ID),
		zap.String("name", cs.Name),
		zap.Int("entries", cs.EntryCount))
	return cs, nil
}

// GetChangeSet loads a change set with its entries
func (s *Store) GetChangeSet(ctx context.Context, id string) (*ChangeSet, error) {
	query := s.dialect.rebind(`
SELECT id, name, left_id, right_id, entry_count, destructive, created_at, body
FROM schemadiff_change_sets
WHERE id = ?
`)
	cs, err := s.scanChangeSet(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get change set %s: %w", id, err)
	}
	return cs, nil
}

// FindChangeSet returns the most recent change set recorded for a snapshot pair
func (s *Store) FindChangeSet(ctx context.Context, leftID, rightID string) (*ChangeSet, error) {
	query := s.dialect.rebind(`
SELECT id, name, left_id, right_id, entry_count, destructive, created_at, body
FROM schemadiff_change_sets
WHERE left_id = ? AND right_id = ?
ORDER BY id DESC
LIMIT 1
`)
	cs, err := s.scanChangeSet(s.db.QueryRowContext(ctx, query, leftID, rightID))
	if err != nil {
		return nil, fmt.Errorf("failed to find change set %s..%s: %w", leftID, rightID, err)
	}
	return cs, nil
}

func (s *Store) scanChangeSet(row interface{ Scan(...any) error }) (*ChangeSet, error) {
	cs := &ChangeSet{}
	var createdAt string
	var body []byte
	err := row.Scan(&cs.ID, &cs.Name, &cs.LeftID, &cs.RightID, &cs.EntryCount, &cs.Destructive, &createdAt, &body)
	if err != nil {
		return nil, convertError(err)
	}

	if cs.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if cs.Entries, err = changelog.Unmarshal(body); err != nil {
		return nil, err
	}
	return cs, nil
}

// ListChangeSets returns all change sets, oldest first, without their entries
func (s *Store) ListChangeSets(ctx context.Context) ([]*ChangeSet, error) {
	query := `
SELECT id, name, left_id, right_id, entry_count, destructive, created_at
FROM schemadiff_change_sets
ORDER BY id ASC
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query change sets: %w", err)
	}
	defer rows.Close()

	var sets []*ChangeSet
	for rows.Next() {
		cs := &ChangeSet{}
		var createdAt string
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.LeftID, &cs.RightID, &cs.EntryCount, &cs.Destructive, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan change set: %w", err)
		}
		if cs.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		sets = append(sets, cs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating change sets: %w", err)
	}

	return sets, nil
}
