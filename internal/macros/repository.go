package macros

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for macro persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Macro, error)
	List(ctx context.Context) ([]Macro, error)
	ListByType(ctx context.Context, macroType MacroType) ([]Macro, error)
	Create(ctx context.Context, macro *Macro) error
	Update(ctx context.Context, macro *Macro) error
	Delete(ctx context.Context, id string) error
}

// macroColumns is the SELECT column list for macro queries.
const macroColumns = `id, name, description, type, labels, settings, output, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a macro by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Macro, error) {
	query := `SELECT ` + macroColumns + ` FROM macros WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	macro, err := scanMacro(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMacroNotFound
		}
		return nil, fmt.Errorf("querying macro by id: %w", err)
	}
	return macro, nil
}

// List retrieves all macros ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Macro, error) {
	query := `SELECT ` + macroColumns + ` FROM macros ORDER BY name`
	return r.queryMacros(ctx, query)
}

// ListByType retrieves all macros of one type.
func (r *SQLiteRepository) ListByType(ctx context.Context, macroType MacroType) ([]Macro, error) {
	query := `SELECT ` + macroColumns + ` FROM macros WHERE type = ? ORDER BY name`
	return r.queryMacros(ctx, query, string(macroType))
}

// Create inserts a new macro. A missing ID is generated.
func (r *SQLiteRepository) Create(ctx context.Context, macro *Macro) error {
	if err := Validate(macro); err != nil {
		return err
	}
	if macro.ID == "" {
		macro.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if macro.CreatedAt.IsZero() {
		macro.CreatedAt = now
	}
	macro.UpdatedAt = now

	labels, settings, output, err := marshalMacroColumns(macro)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO macros (
			id, name, description, type, labels, settings, output, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		macro.ID,
		macro.Name,
		nullableString(macro.Description),
		string(macro.Type),
		labels,
		settings,
		output,
		macro.CreatedAt.Format(time.RFC3339),
		macro.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrMacroExists
		}
		return fmt.Errorf("inserting macro: %w", err)
	}

	return nil
}

// Update modifies an existing macro.
func (r *SQLiteRepository) Update(ctx context.Context, macro *Macro) error {
	if err := Validate(macro); err != nil {
		return err
	}

	macro.UpdatedAt = time.Now().UTC()

	labels, settings, output, err := marshalMacroColumns(macro)
	if err != nil {
		return err
	}

	query := `UPDATE macros SET
		name = ?, description = ?, type = ?, labels = ?, settings = ?, output = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		macro.Name,
		nullableString(macro.Description),
		string(macro.Type),
		labels,
		settings,
		output,
		macro.UpdatedAt.Format(time.RFC3339),
		macro.ID,
	)
	if err != nil {
		return fmt.Errorf("updating macro: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMacroNotFound
	}

	return nil
}

// Delete removes a macro by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM macros WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting macro: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMacroNotFound
	}

	return nil
}

// queryMacros runs a multi-row macro query.
func (r *SQLiteRepository) queryMacros(ctx context.Context, query string, args ...any) ([]Macro, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying macros: %w", err)
	}
	defer rows.Close()

	var macros []Macro
	for rows.Next() {
		macro, err := scanMacro(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning macro: %w", err)
		}
		macros = append(macros, *macro)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating macros: %w", err)
	}

	return macros, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMacro scans a macro from a row scanner.
func scanMacro(scanner rowScanner) (*Macro, error) {
	var macro Macro
	var description sql.NullString
	var macroType string
	var labels sql.NullString
	var settings string
	var output sql.NullString
	var createdAt string
	var updatedAt string

	err := scanner.Scan(
		&macro.ID,
		&macro.Name,
		&description,
		&macroType,
		&labels,
		&settings,
		&output,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	macro.Type = MacroType(macroType)
	if description.Valid {
		macro.Description = description.String
	}

	if err := unmarshalColumn(labels.String, &macro.Labels); err != nil {
		return nil, fmt.Errorf("unmarshalling labels: %w", err)
	}
	if err := unmarshalColumn(settings, &macro.Settings); err != nil {
		return nil, fmt.Errorf("unmarshalling settings: %w", err)
	}
	if err := unmarshalColumn(output.String, &macro.Output); err != nil {
		return nil, fmt.Errorf("unmarshalling output: %w", err)
	}

	macro.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	macro.UpdatedAt, err = parseTimestamp(updatedAt)
	if err != nil {
		return nil, err
	}

	return &macro, nil
}

// marshalMacroColumns serialises the JSON columns for storage.
func marshalMacroColumns(macro *Macro) (labels, settings, output any, err error) {
	if len(macro.Labels) > 0 {
		b, err := json.Marshal(macro.Labels)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshalling labels: %w", err)
		}
		labels = string(b)
	}

	b, err := json.Marshal(macro.Settings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshalling settings: %w", err)
	}
	settings = string(b)

	b, err = json.Marshal(macro.Output)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshalling output: %w", err)
	}
	output = string(b)

	return labels, settings, output, nil
}

// unmarshalColumn parses a JSON column, treating empty and "null" as absent.
func unmarshalColumn(value string, dest any) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return json.Unmarshal([]byte(trimmed), dest)
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	return timestamp, nil
}

// nullableString returns a sql.NullString that is NULL for empty strings.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
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
