package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rmuit/copernica-testapi/internal/schema"
)

// Profile is one stored row of a database's record table. Field values are
// rendered as strings in the schema's field shape; the raw relational layout
// stays internal.
type Profile struct {
	ID         int64
	DatabaseID int
	Fields     map[string]string
	Secret     string
	Created    time.Time
	Modified   time.Time
	Removed    *time.Time
}

// CreateProfile coerces the supplied field values against the database's
// schema and inserts a fresh row: new ID, generated secret, created equal to
// modified, not removed. Unknown field names are ignored; unsupplied fields
// store their defaults.
func (s *Store) CreateProfile(ctx context.Context, databaseID int, fields map[string]any) (*Profile, error) {
	db, ok := s.schema.Database(databaseID)
	if !ok {
		return nil, fmt.Errorf("database %d: %w", databaseID, ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextProfileID + 1
	now := stamp(s.now())
	columns := []string{colID, colSecret, colCreated, colModified}
	values := []any{id, newSecret(), now, now}
	for _, f := range db.Fields {
		columns = append(columns, f.Name)
		if raw, supplied := fields[f.Name]; supplied {
			values = append(values, s.coercer.Value(raw, f.Type))
		} else {
			values = append(values, s.defaultValue(f))
		}
	}

	query := s.insertSQL(profileTable(databaseID), columns)
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	s.nextProfileID = id
	s.logger.Debug("profile created", zap.Int64("id", id), zap.Int("database", databaseID))

	return s.fetchProfile(ctx, db, id)
}

// GetProfile returns the stored row for one profile ID.
func (s *Store) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	_, p, err := s.findProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// ListProfiles returns all stored rows of one database, removed ones
// included, in ID order.
func (s *Store) ListProfiles(ctx context.Context, databaseID int) ([]*Profile, error) {
	db, ok := s.schema.Database(databaseID)
	if !ok {
		return nil, fmt.Errorf("database %d: %w", databaseID, ErrNotFound)
	}
	query := s.selectSQL(profileTable(databaseID), fieldNames(db.Fields), "", false)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows, db)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateProfile coerces and merges the supplied fields into an existing row
// and moves the modified stamp; unspecified fields stay untouched. A missing
// profile is an error.
func (s *Store) UpdateProfile(ctx context.Context, id int64, fields map[string]any) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, existing, err := s.findProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}

	assignments := []string{s.dialect.QuoteIdentifier(colModified) + " = " + s.dialect.Placeholder(1)}
	values := []any{stamp(s.now())}
	for _, f := range db.Fields {
		if raw, supplied := fields[f.Name]; supplied {
			values = append(values, s.coercer.Value(raw, f.Type))
			assignments = append(assignments,
				s.dialect.QuoteIdentifier(f.Name)+" = "+s.dialect.Placeholder(len(values)))
		}
	}
	values = append(values, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.dialect.QuoteIdentifier(profileTable(db.ID)),
		strings.Join(assignments, ", "),
		s.dialect.QuoteIdentifier(colID),
		s.dialect.Placeholder(len(values)))
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return nil, fmt.Errorf("failed to update profile %d: %w", id, err)
	}
	return s.fetchProfile(ctx, db, id)
}

// RemoveProfile soft-deletes a profile. Removing an already-removed or
// unknown profile succeeds without effect. With cascade policy enabled, the
// profile's subprofiles in every collection of its database are soft-removed
// along with it.
func (s *Store) RemoveProfile(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, existing, err := s.findProfile(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.Removed != nil {
		return nil
	}

	now := stamp(s.now())
	query := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
		s.dialect.QuoteIdentifier(profileTable(db.ID)),
		s.dialect.QuoteIdentifier(colRemoved),
		s.dialect.Placeholder(1),
		s.dialect.QuoteIdentifier(colID),
		s.dialect.Placeholder(2))
	if _, err := s.db.ExecContext(ctx, query, now, id); err != nil {
		return fmt.Errorf("failed to remove profile %d: %w", id, err)
	}
	s.logger.Debug("profile removed", zap.Int64("id", id), zap.Bool("cascade", s.cascade))

	if !s.cascade {
		return nil
	}
	for _, c := range db.Collections {
		query := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s AND %s IS NULL",
			s.dialect.QuoteIdentifier(subprofileTable(c.ID)),
			s.dialect.QuoteIdentifier(colRemoved),
			s.dialect.Placeholder(1),
			s.dialect.QuoteIdentifier(colProfileID),
			s.dialect.Placeholder(2),
			s.dialect.QuoteIdentifier(colRemoved))
		if _, err := s.db.ExecContext(ctx, query, now, id); err != nil {
			return fmt.Errorf("failed to cascade removal into collection %d: %w", c.ID, err)
		}
	}
	return nil
}

// findProfile locates a profile by ID across every database table. Record
// IDs are allocated from one store-wide counter, so at most one table holds
// the ID.
func (s *Store) findProfile(ctx context.Context, id int64) (*schema.Database, *Profile, error) {
	for _, db := range s.schema.Databases() {
		p, err := s.fetchProfile(ctx, db, id)
		if err == nil {
			return db, p, nil
		}
		if !isNoRows(err) {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func (s *Store) fetchProfile(ctx context.Context, db *schema.Database, id int64) (*Profile, error) {
	query := s.selectSQL(profileTable(db.ID), fieldNames(db.Fields),
		s.dialect.QuoteIdentifier(colID)+" = "+s.dialect.Placeholder(1), false)
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanProfile(rows, db)
}

func scanProfile(rows *sql.Rows, db *schema.Database) (*Profile, error) {
	values := make([]any, 5+len(db.Fields))
	pointers := make([]any, len(values))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, fmt.Errorf("failed to scan profile row: %w", err)
	}

	p := &Profile{
		ID:         asInt64(values[0]),
		DatabaseID: db.ID,
		Secret:     storedString(values[1]),
		Created:    parseStamp(values[2]),
		Modified:   parseStamp(values[3]),
		Fields:     renderFields(db.Fields, values[5:]),
	}
	if values[4] != nil {
		removed := parseStamp(values[4])
		p.Removed = &removed
	}
	return p, nil
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case []byte:
		var n int64
		_, _ = fmt.Sscan(string(x), &n)
		return n
	default:
		return 0
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
