// Package store persists profile and subprofile records for a normalized
// schema: one relational table per database and per collection, created at
// initialization, written through the value coercion rules and read back in
// the schema's field shape.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmuit/copernica-testapi/internal/coerce"
	"github.com/rmuit/copernica-testapi/internal/database"
	"github.com/rmuit/copernica-testapi/internal/schema"
)

// Options configures a Store.
type Options struct {
	// CascadeRemove soft-removes a profile's subprofiles when the profile is
	// removed. The emulated service's behavior here is not conclusively
	// specified, so it is policy rather than a fixed rule.
	CascadeRemove bool
	// Location is the timezone date coercion reads naive input in and
	// renders results in; defaults to the process-local timezone.
	Location *time.Location
	// Now supplies the clock; defaults to time.Now.
	Now func() time.Time
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Store executes create/update/soft-delete operations against the backing
// engine. Mutations are serialized through one mutex so record IDs stay
// monotonic; reads of the schema itself are lock-free.
type Store struct {
	db      *sql.DB
	dialect database.Dialect
	schema  *schema.Schema
	coercer *coerce.Coercer
	logger  *zap.Logger
	now     func() time.Time
	cascade bool

	mu               sync.Mutex
	nextProfileID    int64
	nextSubprofileID int64
}

// New wires a store to an open connection and a normalized schema.
func New(db *sql.DB, dialect database.Dialect, s *schema.Schema, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		dialect: dialect,
		schema:  s,
		coercer: &coerce.Coercer{InputLocation: opts.Location, OutputLocation: opts.Location, Now: now},
		logger:  logger,
		now:     now,
		cascade: opts.CascadeRemove,
	}
}

// Initialize creates the record tables for every database and collection in
// the schema and seeds the ID counters from whatever rows already exist.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, db := range s.schema.Databases() {
		stmt := createProfileTableSQL(s.dialect, db)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create profile table for database %d: %w", db.ID, err)
		}
		max, err := s.maxID(ctx, profileTable(db.ID))
		if err != nil {
			return err
		}
		if max > s.nextProfileID {
			s.nextProfileID = max
		}

		for _, c := range db.Collections {
			stmt := createSubprofileTableSQL(s.dialect, c)
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create subprofile table for collection %d: %w", c.ID, err)
			}
			max, err := s.maxID(ctx, subprofileTable(c.ID))
			if err != nil {
				return err
			}
			if max > s.nextSubprofileID {
				s.nextSubprofileID = max
			}
		}
	}
	s.logger.Info("record store initialized",
		zap.String("engine", s.dialect.Name()),
		zap.Int("databases", len(s.schema.Databases())))
	return nil
}

func (s *Store) maxID(ctx context.Context, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s",
		s.dialect.QuoteIdentifier(colID), s.dialect.QuoteIdentifier(table))
	var max int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max ID of %s: %w", table, err)
	}
	return max, nil
}

// defaultValue is what an unsupplied field stores on creation. This is the
// one place empty_date/empty_datetime diverge from their base types: the
// base types store the sentinel, the empty variants an empty string.
func (s *Store) defaultValue(f *schema.Field) any {
	if f.HasDefault {
		return s.coercer.Value(f.Default, f.Type)
	}
	switch f.Type {
	case schema.TypeInteger:
		return int64(0)
	case schema.TypeFloat:
		return float64(0)
	case schema.TypeDate:
		return coerce.DateSentinel
	case schema.TypeDatetime:
		return coerce.DatetimeSentinel
	default: // text, email, empty_date, empty_datetime
		return ""
	}
}

// Timestamps persist at nanosecond precision so an update inside the same
// wall-clock second still moves the modified stamp forward; second-level
// rendering is the response formatter's concern.
func stamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseStamp(raw any) time.Time {
	s := storedString(raw)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func newSecret() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func storedString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// insertSQL renders one INSERT statement with dialect placeholders.
func (s *Store) insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = s.dialect.QuoteIdentifier(c)
		params[i] = s.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.dialect.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(params, ", "))
}

// selectSQL renders SELECT <meta+fields> FROM <table> with an optional WHERE
// clause whose placeholders start at 1.
func (s *Store) selectSQL(table string, fieldNames []string, where string, withProfileRef bool) string {
	columns := []string{colID, colSecret, colCreated, colModified, colRemoved}
	if withProfileRef {
		columns = []string{colID, colProfileID, colSecret, colCreated, colModified, colRemoved}
	}
	quoted := make([]string, 0, len(columns)+len(fieldNames))
	for _, c := range columns {
		quoted = append(quoted, s.dialect.QuoteIdentifier(c))
	}
	for _, f := range fieldNames {
		quoted = append(quoted, s.dialect.QuoteIdentifier(f))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), s.dialect.QuoteIdentifier(table))
	if where != "" {
		query += " WHERE " + where
	}
	return query + " ORDER BY " + s.dialect.QuoteIdentifier(colID)
}

func fieldNames(fields []*schema.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// renderFields shapes raw column values back into the schema's field map,
// every value a string the way the emulated service returns them.
func renderFields(fields []*schema.Field, raw []any) map[string]string {
	out := make(map[string]string, len(fields))
	for i, f := range fields {
		out[f.Name] = storedString(raw[i])
	}
	return out
}
