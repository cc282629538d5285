package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rmuit/copernica-testapi/internal/schema"
)

// Subprofile is one stored row of a collection's record table, owned by a
// profile of the collection's database.
type Subprofile struct {
	ID           int64
	CollectionID int
	ProfileID    int64
	Fields       map[string]string
	Secret       string
	Created      time.Time
	Modified     time.Time
	Removed      *time.Time
}

// CreateSubprofile inserts a fresh row into a collection's table, recording
// the owning profile. The profile must exist in the collection's database.
func (s *Store) CreateSubprofile(ctx context.Context, profileID int64, collectionID int, fields map[string]any) (*Subprofile, error) {
	coll, ok := s.schema.Collection(collectionID)
	if !ok {
		return nil, fmt.Errorf("collection %d: %w", collectionID, ErrNotFound)
	}
	db, _ := s.schema.Database(coll.DatabaseID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.fetchProfile(ctx, db, profileID); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
		}
		return nil, err
	}

	id := s.nextSubprofileID + 1
	now := stamp(s.now())
	columns := []string{colID, colProfileID, colSecret, colCreated, colModified}
	values := []any{id, profileID, newSecret(), now, now}
	for _, f := range coll.Fields {
		columns = append(columns, f.Name)
		if raw, supplied := fields[f.Name]; supplied {
			values = append(values, s.coercer.Value(raw, f.Type))
		} else {
			values = append(values, s.defaultValue(f))
		}
	}

	query := s.insertSQL(subprofileTable(collectionID), columns)
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return nil, fmt.Errorf("failed to insert subprofile: %w", err)
	}
	s.nextSubprofileID = id
	s.logger.Debug("subprofile created",
		zap.Int64("id", id), zap.Int64("profile", profileID), zap.Int("collection", collectionID))

	return s.fetchSubprofile(ctx, coll, id)
}

// GetSubprofile returns the stored row for one subprofile ID.
func (s *Store) GetSubprofile(ctx context.Context, id int64) (*Subprofile, error) {
	_, sp, err := s.findSubprofile(ctx, id)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, fmt.Errorf("subprofile %d: %w", id, ErrNotFound)
	}
	return sp, nil
}

// ListSubprofiles returns a collection's stored rows in ID order, optionally
// filtered to one owning profile (profileID zero means no filter).
func (s *Store) ListSubprofiles(ctx context.Context, collectionID int, profileID int64) ([]*Subprofile, error) {
	coll, ok := s.schema.Collection(collectionID)
	if !ok {
		return nil, fmt.Errorf("collection %d: %w", collectionID, ErrNotFound)
	}

	where := ""
	var args []any
	if profileID != 0 {
		where = s.dialect.QuoteIdentifier(colProfileID) + " = " + s.dialect.Placeholder(1)
		args = append(args, profileID)
	}
	query := s.selectSQL(subprofileTable(collectionID), fieldNames(coll.Fields), where, true)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subprofiles: %w", err)
	}
	defer rows.Close()

	var subprofiles []*Subprofile
	for rows.Next() {
		sp, err := scanSubprofile(rows, coll)
		if err != nil {
			return nil, err
		}
		subprofiles = append(subprofiles, sp)
	}
	return subprofiles, rows.Err()
}

// UpdateSubprofile coerces and merges the supplied fields into an existing
// row and moves the modified stamp. A missing subprofile is an error.
func (s *Store) UpdateSubprofile(ctx context.Context, id int64, fields map[string]any) (*Subprofile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, existing, err := s.findSubprofile(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("subprofile %d: %w", id, ErrNotFound)
	}

	assignments := []string{s.dialect.QuoteIdentifier(colModified) + " = " + s.dialect.Placeholder(1)}
	values := []any{stamp(s.now())}
	for _, f := range coll.Fields {
		if raw, supplied := fields[f.Name]; supplied {
			values = append(values, s.coercer.Value(raw, f.Type))
			assignments = append(assignments,
				s.dialect.QuoteIdentifier(f.Name)+" = "+s.dialect.Placeholder(len(values)))
		}
	}
	values = append(values, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.dialect.QuoteIdentifier(subprofileTable(coll.ID)),
		strings.Join(assignments, ", "),
		s.dialect.QuoteIdentifier(colID),
		s.dialect.Placeholder(len(values)))
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return nil, fmt.Errorf("failed to update subprofile %d: %w", id, err)
	}
	return s.fetchSubprofile(ctx, coll, id)
}

// RemoveSubprofile soft-deletes a subprofile; idempotent like RemoveProfile.
func (s *Store) RemoveSubprofile(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, existing, err := s.findSubprofile(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.Removed != nil {
		return nil
	}

	query := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
		s.dialect.QuoteIdentifier(subprofileTable(coll.ID)),
		s.dialect.QuoteIdentifier(colRemoved),
		s.dialect.Placeholder(1),
		s.dialect.QuoteIdentifier(colID),
		s.dialect.Placeholder(2))
	if _, err := s.db.ExecContext(ctx, query, stamp(s.now()), id); err != nil {
		return fmt.Errorf("failed to remove subprofile %d: %w", id, err)
	}
	s.logger.Debug("subprofile removed", zap.Int64("id", id))
	return nil
}

func (s *Store) findSubprofile(ctx context.Context, id int64) (*schema.Collection, *Subprofile, error) {
	for _, db := range s.schema.Databases() {
		for _, coll := range db.Collections {
			sp, err := s.fetchSubprofile(ctx, coll, id)
			if err == nil {
				return coll, sp, nil
			}
			if !isNoRows(err) {
				return nil, nil, err
			}
		}
	}
	return nil, nil, nil
}

func (s *Store) fetchSubprofile(ctx context.Context, coll *schema.Collection, id int64) (*Subprofile, error) {
	query := s.selectSQL(subprofileTable(coll.ID), fieldNames(coll.Fields),
		s.dialect.QuoteIdentifier(colID)+" = "+s.dialect.Placeholder(1), true)
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query subprofile %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanSubprofile(rows, coll)
}

func scanSubprofile(rows *sql.Rows, coll *schema.Collection) (*Subprofile, error) {
	values := make([]any, 6+len(coll.Fields))
	pointers := make([]any, len(values))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, fmt.Errorf("failed to scan subprofile row: %w", err)
	}

	sp := &Subprofile{
		ID:           asInt64(values[0]),
		CollectionID: coll.ID,
		ProfileID:    asInt64(values[1]),
		Secret:       storedString(values[2]),
		Created:      parseStamp(values[3]),
		Modified:     parseStamp(values[4]),
		Fields:       renderFields(coll.Fields, values[6:]),
	}
	if values[5] != nil {
		removed := parseStamp(values[5])
		sp.Removed = &removed
	}
	return sp, nil
}
