package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/funsense/fewshot/internal/dataset"
	"github.com/funsense/fewshot/internal/db"
	"github.com/funsense/fewshot/internal/hierarchy"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store provides read/write access to the fewshot SQLite database.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Conn exposes the underlying *sql.DB for low-level queries.
func (s *Store) Conn() *sql.DB {
	return s.db.Conn()
}

// ---- Hierarchies ----

// SaveHierarchy stores a snapshot of h and returns its ID.
func (s *Store) SaveHierarchy(sourceDir string, h *hierarchy.Hierarchy) (int64, error) {
	d := h.ToDict()
	body, err := json.Marshal(d)
	if err != nil {
		return 0, fmt.Errorf("store: encode hierarchy: %w", err)
	}
	items := make(map[string]struct{})
	for _, nd := range d.Nodes {
		for _, id := range nd.EmailIDs {
			items[id] = struct{}{}
		}
	}

	var id int64
	err = s.db.Conn().QueryRow(`
		INSERT INTO hierarchies (source_dir, body, label_count, item_count)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		sourceDir, string(body), h.Len(), len(items),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: save hierarchy: %w", err)
	}
	return id, nil
}

// LatestHierarchy returns the most recently stored hierarchy.
func (s *Store) LatestHierarchy() (Snapshot, error) {
	row := s.db.Conn().QueryRow(`
		SELECT id, source_dir, body, label_count, item_count, created_at
		FROM hierarchies ORDER BY id DESC LIMIT 1`)
	return scanSnapshot(row)
}

// GetHierarchy returns the hierarchy with the given ID.
func (s *Store) GetHierarchy(id int64) (Snapshot, error) {
	row := s.db.Conn().QueryRow(`
		SELECT id, source_dir, body, label_count, item_count, created_at
		FROM hierarchies WHERE id = ?`, id)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (Snapshot, error) {
	var snap Snapshot
	var body, createdAt string
	err := row.Scan(&snap.ID, &snap.SourceDir, &body, &snap.LabelCount, &snap.ItemCount, &createdAt)
	if err == sql.ErrNoRows {
		return snap, fmt.Errorf("%w: no hierarchy stored, run `fewshot hierarchy` first", ErrNotFound)
	}
	if err != nil {
		return snap, fmt.Errorf("store: get hierarchy: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &snap.Dict); err != nil {
		return snap, fmt.Errorf("store: decode hierarchy %d: %w", snap.ID, err)
	}
	snap.CreatedAt = parseTime(createdAt)
	return snap, nil
}

// PruneHierarchies deletes all but the latest keep hierarchies.
// Returns the number of deleted rows.
func (s *Store) PruneHierarchies(keep int) (int, error) {
	res, err := s.db.Conn().Exec(`
		DELETE FROM hierarchies WHERE id NOT IN (
			SELECT id FROM hierarchies ORDER BY id DESC LIMIT ?
		)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("store: prune hierarchies: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ---- Example sets ----

// SaveExampleSet stores set and its examples in one transaction. It returns
// the new set ID. set.ID, set.Count and set.CreatedAt are ignored.
func (s *Store) SaveExampleSet(set ExampleSet) (int64, error) {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var hierarchyID any
	if set.HierarchyID != 0 {
		hierarchyID = set.HierarchyID
	}

	var id int64
	err = tx.QueryRow(`
		INSERT INTO example_sets (hierarchy_id, token_budget, total_tokens, min_per_label, max_per_label, seed)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		hierarchyID, set.TokenBudget, set.TotalTokens, set.MinPerLabel, set.MaxPerLabel, set.Seed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: save example set: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO examples (set_id, position, content, labels, label_paths)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare examples: %w", err)
	}
	defer stmt.Close()

	for i, ex := range set.Examples {
		labels, _ := json.Marshal(nonNil(ex.Labels))
		paths, _ := json.Marshal(nonNilPaths(ex.LabelPaths))
		if _, err := stmt.Exec(id, i, ex.Content, string(labels), string(paths)); err != nil {
			return 0, fmt.Errorf("store: save example %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit example set: %w", err)
	}
	return id, nil
}

// LatestExampleSet returns the most recent example set with its examples.
func (s *Store) LatestExampleSet() (ExampleSet, error) {
	sets, err := s.ListExampleSets(1)
	if err != nil {
		return ExampleSet{}, err
	}
	if len(sets) == 0 {
		return ExampleSet{}, fmt.Errorf("%w: no example set stored, run `fewshot examples` first", ErrNotFound)
	}
	set := sets[0]
	set.Examples, err = s.listExamples(set.ID)
	if err != nil {
		return ExampleSet{}, err
	}
	return set, nil
}

// ListExampleSets returns the n most recent example sets, newest first,
// without their examples.
func (s *Store) ListExampleSets(n int) ([]ExampleSet, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Conn().Query(`
		SELECT es.id, COALESCE(es.hierarchy_id, 0), es.token_budget, es.total_tokens,
		       es.min_per_label, es.max_per_label, es.seed, es.created_at,
		       (SELECT COUNT(*) FROM examples e WHERE e.set_id = es.id)
		FROM example_sets es
		ORDER BY es.id DESC
		LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list example sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ExampleSet
	for rows.Next() {
		var set ExampleSet
		var createdAt string
		if err := rows.Scan(
			&set.ID, &set.HierarchyID, &set.TokenBudget, &set.TotalTokens,
			&set.MinPerLabel, &set.MaxPerLabel, &set.Seed, &createdAt, &set.Count,
		); err != nil {
			return nil, err
		}
		set.CreatedAt = parseTime(createdAt)
		out = append(out, set)
	}
	return out, rows.Err()
}

func (s *Store) listExamples(setID int64) ([]dataset.Example, error) {
	rows, err := s.db.Conn().Query(`
		SELECT content, labels, label_paths FROM examples
		WHERE set_id = ? ORDER BY position`, setID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list examples: %w", err)
	}
	defer rows.Close()

	var out []dataset.Example
	for rows.Next() {
		var ex dataset.Example
		var labels, paths string
		if err := rows.Scan(&ex.Content, &labels, &paths); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(labels), &ex.Labels); err != nil {
			return nil, fmt.Errorf("store: decode labels: %w", err)
		}
		if err := json.Unmarshal([]byte(paths), &ex.LabelPaths); err != nil {
			return nil, fmt.Errorf("store: decode label paths: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// PruneExampleSets deletes all but the latest keep example sets.
// Returns the number of deleted sets.
func (s *Store) PruneExampleSets(keep int) (int, error) {
	res, err := s.db.Conn().Exec(`
		DELETE FROM example_sets WHERE id NOT IN (
			SELECT id FROM example_sets ORDER BY id DESC LIMIT ?
		)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("store: prune example sets: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ---- Item labels ----

// UpsertItemLabels records the labels assigned to itemID.
func (s *Store) UpsertItemLabels(itemID string, labels []string, model string) error {
	body, err := json.Marshal(nonNil(labels))
	if err != nil {
		return fmt.Errorf("store: encode labels: %w", err)
	}
	_, err = s.db.Conn().Exec(`
		INSERT INTO item_labels (item_id, labels, model, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(item_id) DO UPDATE SET
		    labels     = excluded.labels,
		    model      = excluded.model,
		    updated_at = CURRENT_TIMESTAMP`,
		itemID, string(body), model,
	)
	if err != nil {
		return fmt.Errorf("store: upsert item labels: %w", err)
	}
	return nil
}

// GetItemLabels returns the stored labels for itemID.
func (s *Store) GetItemLabels(itemID string) (ItemLabels, error) {
	il := ItemLabels{ItemID: itemID}
	var body, updatedAt string
	err := s.db.Conn().QueryRow(
		`SELECT labels, COALESCE(model,''), updated_at FROM item_labels WHERE item_id = ?`, itemID,
	).Scan(&body, &il.Model, &updatedAt)
	if err == sql.ErrNoRows {
		return il, fmt.Errorf("%w: no labels for item %q", ErrNotFound, itemID)
	}
	if err != nil {
		return il, fmt.Errorf("store: get item labels: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &il.Labels); err != nil {
		return il, fmt.Errorf("store: decode item labels: %w", err)
	}
	il.UpdatedAt = parseTime(updatedAt)
	return il, nil
}

// CountItemLabels returns the number of labelled items.
func (s *Store) CountItemLabels() (int, error) {
	var n int
	err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM item_labels`).Scan(&n)
	return n, err
}

// ---- Stats ----

// Stats summarises the store contents.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	conn := s.db.Conn()

	if err := conn.QueryRow(`SELECT COUNT(*) FROM hierarchies`).Scan(&st.Hierarchies); err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}
	if err := conn.QueryRow(`SELECT COUNT(*) FROM example_sets`).Scan(&st.ExampleSets); err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}
	n, err := s.CountItemLabels()
	if err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}
	st.LabelledItems = n

	var updated []time.Time
	if snap, err := s.LatestHierarchy(); err == nil {
		st.Labels = snap.LabelCount
		updated = append(updated, snap.CreatedAt)
	}
	if sets, err := s.ListExampleSets(1); err == nil && len(sets) > 0 {
		st.Examples = sets[0].Count
		updated = append(updated, sets[0].CreatedAt)
	}
	var labelled sql.NullString
	if err := conn.QueryRow(`SELECT MAX(updated_at) FROM item_labels`).Scan(&labelled); err == nil && labelled.Valid {
		updated = append(updated, parseTime(labelled.String))
	}
	for _, t := range updated {
		if t.After(st.LastUpdated) {
			st.LastUpdated = t
		}
	}
	return st, nil
}

// ---- Helpers ----

// parseTime tries multiple SQLite timestamp layouts.
// go-sqlite3 may return RFC3339 or the plain "2006-01-02 15:04:05" format depending on
// the connection string and platform.
func parseTime(s string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilPaths(p [][]string) [][]string {
	if p == nil {
		return [][]string{}
	}
	return p
}
