package lighting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines persistence operations for lighting groups.
type Repository interface {
	// Create bulk-inserts new groups with no relays and state OFF.
	// Either all locations are created or none are.
	Create(ctx context.Context, locations []string) ([]Group, error)
	// Remove bulk-deletes groups by location, returning the removed rows.
	// A missing location is not an error; it contributes nothing.
	Remove(ctx context.Context, locations []string) ([]Group, error)
	// AssignRelays replaces the full relay set for one group.
	AssignRelays(ctx context.Context, location string, relays []int) (*Group, error)
	// Turn updates the state of all named groups as one batch.
	Turn(ctx context.Context, locations []string, state GroupState) ([]Group, error)
	// Get retrieves a group by location.
	Get(ctx context.Context, location string) (*Group, error)
	// List retrieves all groups.
	List(ctx context.Context) ([]Group, error)
}

// SQLiteRepository implements Repository using SQLite.
//
// The database handle is limited to one open connection, so writes to a
// given group never race each other; a later Turn always observes an
// earlier AssignRelays.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed lighting group repository.
//
// Parameters:
//   - db: Open SQLite connection used for group queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
//
// Security: Uses parameterised SQL queries to prevent injection.
// Example:
//
//	repo := lighting.NewSQLiteRepository(db)
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create bulk-inserts new groups.
//
// Every group starts with an empty relay set and state OFF. The insert is
// transactional: if any location already exists or any insert fails, no
// row is written.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - locations: Natural keys to provision
//
// Returns:
//   - []Group: The created rows, in input order
//   - error: ErrNoLocations, ErrGroupExists on conflict, otherwise a database error
//
// Example:
//
//	groups, err := repo.Create(ctx, []string{"kitchen", "hall"})
func (r *SQLiteRepository) Create(ctx context.Context, locations []string) ([]Group, error) {
	keys := dedupeOrdered(locations)
	if len(keys) == 0 {
		return nil, ErrNoLocations
	}

	now := time.Now().UTC().Truncate(time.Second)
	stamp := now.Format(time.RFC3339)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lighting_groups (location, relays, state, created_at, updated_at)
		VALUES (?, '[]', ?, ?, ?)`,
	)
	if err != nil {
		return nil, fmt.Errorf("preparing group insert: %w", err)
	}
	defer stmt.Close()

	groups := make([]Group, 0, len(keys))
	for _, location := range keys {
		if _, err := stmt.ExecContext(ctx, location, string(GroupStateOff), stamp, stamp); err != nil {
			if isUniqueConstraintError(err) {
				return nil, fmt.Errorf("%w: %s", ErrGroupExists, location)
			}
			return nil, fmt.Errorf("inserting lighting group: %w", err)
		}
		groups = append(groups, Group{
			Location:  location,
			Relays:    []int{},
			State:     GroupStateOff,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return groups, nil
}

// Remove bulk-deletes groups by location.
//
// Removing a non-existent location is not an error; the returned slice
// holds only the rows that actually existed.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - locations: Natural keys to delete
//
// Returns:
//   - []Group: The removed rows
//   - error: ErrNoLocations, otherwise the underlying database error
func (r *SQLiteRepository) Remove(ctx context.Context, locations []string) ([]Group, error) {
	keys := dedupeOrdered(locations)
	if len(keys) == 0 {
		return nil, ErrNoLocations
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	groups, err := queryGroups(ctx, tx,
		`SELECT location, relays, state, created_at, updated_at
		FROM lighting_groups WHERE location IN (`+placeholders(len(keys))+`)
		ORDER BY location`,
		toArgs(keys)...,
	)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM lighting_groups WHERE location IN ("+placeholders(len(keys))+")",
		toArgs(keys)...,
	); err != nil {
		return nil, fmt.Errorf("deleting lighting groups: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return groups, nil
}

// AssignRelays replaces the full relay set for one group.
//
// The write is last-write-wins on the relay column; there is no merge
// with the previous assignment.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - location: Natural key of the group
//   - relays: Replacement relay identifiers (1-based table indexes)
//
// Returns:
//   - *Group: The updated row
//   - error: ErrGroupNotFound if missing, otherwise the underlying database error
//
// Example:
//
//	group, err := repo.AssignRelays(ctx, "kitchen", []int{1, 2, 5})
func (r *SQLiteRepository) AssignRelays(ctx context.Context, location string, relays []int) (*Group, error) {
	encoded, err := marshalRelays(relays)
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE lighting_groups SET
		relays = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE location = ?`,
		encoded, location,
	)
	if err != nil {
		return nil, fmt.Errorf("updating group relays: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, location)
	}

	return r.Get(ctx, location)
}

// Turn updates the state of all named groups as one batch.
//
// The update must touch exactly one row per named location; anything
// less is reported as ErrPartialWrite so callers never mistake a
// missing key for success.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - locations: Natural keys of the groups to switch
//   - state: Target state, ON or OFF
//
// Returns:
//   - []Group: The updated rows
//   - error: ErrNoLocations, ErrInvalidState, ErrPartialWrite, or a database error
func (r *SQLiteRepository) Turn(ctx context.Context, locations []string, state GroupState) ([]Group, error) {
	keys := dedupeOrdered(locations)
	if len(keys) == 0 {
		return nil, ErrNoLocations
	}
	if !state.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	args := append([]any{string(state)}, toArgs(keys)...)
	result, err := tx.ExecContext(ctx,
		`UPDATE lighting_groups SET
		state = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE location IN (`+placeholders(len(keys))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating group state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected != int64(len(keys)) {
		return nil, fmt.Errorf("%w: updated %d of %d groups", ErrPartialWrite, rowsAffected, len(keys))
	}

	groups, err := queryGroups(ctx, tx,
		`SELECT location, relays, state, created_at, updated_at
		FROM lighting_groups WHERE location IN (`+placeholders(len(keys))+`)
		ORDER BY location`,
		toArgs(keys)...,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return groups, nil
}

// Get retrieves a group by location.
//
// Returns:
//   - *Group: Group record when found
//   - error: ErrGroupNotFound if missing, otherwise the underlying query error
func (r *SQLiteRepository) Get(ctx context.Context, location string) (*Group, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT location, relays, state, created_at, updated_at
		FROM lighting_groups WHERE location = ?`,
		location,
	)

	group, err := scanGroupRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, location)
		}
		return nil, fmt.Errorf("querying lighting group: %w", err)
	}

	return group, nil
}

// List retrieves all groups ordered by location.
func (r *SQLiteRepository) List(ctx context.Context) ([]Group, error) {
	return queryGroups(ctx, r.db,
		`SELECT location, relays, state, created_at, updated_at
		FROM lighting_groups ORDER BY location`,
	)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryGroups runs a multi-row group query.
func queryGroups(ctx context.Context, q querier, query string, args ...any) ([]Group, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lighting groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		group, err := scanGroupRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lighting group: %w", err)
		}
		groups = append(groups, *group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lighting groups: %w", err)
	}

	return groups, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanGroupRow scans a lighting group from a row scanner.
func scanGroupRow(scanner rowScanner) (*Group, error) {
	var group Group
	var relays string
	var state string
	var createdAt string
	var updatedAt string

	err := scanner.Scan(&group.Location, &relays, &state, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	group.State = GroupState(state)

	group.Relays, err = unmarshalRelays(relays)
	if err != nil {
		return nil, err
	}

	group.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	group.UpdatedAt, err = parseTimestamp(updatedAt)
	if err != nil {
		return nil, err
	}

	return &group, nil
}

// marshalRelays serialises a relay list for storage.
func marshalRelays(relays []int) (string, error) {
	if relays == nil {
		relays = []int{}
	}
	b, err := json.Marshal(relays)
	if err != nil {
		return "", fmt.Errorf("marshalling relays: %w", err)
	}
	return string(b), nil
}

// unmarshalRelays parses the stored relay list.
func unmarshalRelays(value string) ([]int, error) {
	if strings.TrimSpace(value) == "" || strings.TrimSpace(value) == "null" {
		return []int{}, nil
	}
	var relays []int
	if err := json.Unmarshal([]byte(value), &relays); err != nil {
		return nil, fmt.Errorf("unmarshalling relays: %w", err)
	}
	return relays, nil
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing timestamp: %w", err)
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// toArgs converts string keys to query arguments.
func toArgs(keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return args
}

// dedupeOrdered removes duplicate values while preserving order.
func dedupeOrdered(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}

	return unique
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
