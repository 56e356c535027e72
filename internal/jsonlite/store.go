package jsonlite

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// tableColumns mirrors one SQLite table's column name -> declared type
// ("TEXT" or "INTEGER"), the in-memory half of pyjsonlite's _tables cache.
type tableColumns map[string]string

// Store is the Record Index: it owns table/column lifecycle, row
// marshalling, and the single-writer SQLite connection, and gates every
// mutation through the SchemaRegistry when strict mode is on. It mirrors
// pyjsonlite.JSONLite's insert/get/update/select/all/query methods.
type Store struct {
	db      *sql.DB
	opts    *Options
	schemas *SchemaRegistry
	catalog map[string]tableColumns
}

// NewStore returns a Store over db, loading its table catalog immediately.
func NewStore(db *sql.DB, opts *Options, schemas *SchemaRegistry) (*Store, error) {
	s := &Store{db: db, opts: opts, schemas: schemas, catalog: map[string]tableColumns{}}
	if err := s.loadCatalog(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadCatalog populates the catalog from SQLite's own table/column
// metadata, so a Store opening an existing container picks up tables
// created by a previous process.
func (s *Store) loadCatalog() error {
	tables, err := s.tableNames()
	if err != nil {
		return err
	}
	for _, t := range tables {
		cols, err := s.pragmaColumns(t)
		if err != nil {
			return err
		}
		s.catalog[t] = cols
	}
	return nil
}

func (s *Store) tableNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, wrapBackend("list tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapBackend("list tables", err)
		}
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "sqlite_") {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) pragmaColumns(table string) (tableColumns, error) {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, wrapBackend("pragma table_info", err)
	}
	defer rows.Close()

	cols := tableColumns{}
	for rows.Next() {
		var (
			cid        int
			name, ctyp string
			notnull    int
			dflt       sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctyp, &notnull, &dflt, &pk); err != nil {
			return nil, wrapBackend("pragma table_info", err)
		}
		cols[name] = ctyp
	}
	return cols, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// isIntegral reports whether v holds a whole number, and returns it as an
// int64. Both Go-native integers and float64 (the shape encoding/json
// produces) are accepted, matching spec.md §9's column-type-promotion
// policy: the column's SQL type is decided by whether the *first* value
// written is integral.
func isIntegral(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	}
	return 0, false
}

func sqlTypeOf(v interface{}) string {
	if _, ok := isIntegral(v); ok {
		return "INTEGER"
	}
	return "TEXT"
}

// columnValue coerces v for storage in a column already declared colType.
// Once a column is TEXT it stays TEXT forever: a later integral value is
// rendered as its decimal string. Once a column is INTEGER, a later
// non-integral value is rejected rather than silently widening the column,
// per the "once TEXT always TEXT" resolution in DESIGN.md.
func columnValue(colType string, v interface{}) (interface{}, error) {
	switch colType {
	case "INTEGER":
		n, ok := isIntegral(v)
		if !ok {
			return nil, &ValidationError{Causes: []string{
				fmt.Sprintf("value %v is not integral but column is INTEGER", v),
			}}
		}
		return n, nil
	default:
		if n, ok := isIntegral(v); ok {
			return strconv.FormatInt(n, 10), nil
		}
		switch x := v.(type) {
		case string:
			return x, nil
		case bool:
			return strconv.FormatBool(x), nil
		case float64:
			return strconv.FormatFloat(x, 'g', -1, 64), nil
		default:
			return fmt.Sprintf("%v", x), nil
		}
	}
}

// ensureTable creates table if it does not exist yet, or adds whatever
// columns of flat it is still missing. Callers are responsible for
// validating beforehand: ensureTable never validates, so that a mutation
// validates exactly once regardless of whether it also happens to create a
// table or column (DESIGN.md, Open Question resolution on duplicate
// validate calls).
func (s *Store) ensureTable(table string, discriminator string, flat Record) error {
	existing, ok := s.catalog[table]
	if !ok {
		return s.createTable(table, discriminator, flat)
	}
	return s.addMissingColumns(table, existing, flat)
}

func (s *Store) createTable(table, discriminator string, flat Record) error {
	cols := tableColumns{"uid": "TEXT", discriminator: "TEXT"}
	defs := []string{
		`"uid" TEXT PRIMARY KEY`,
		quoteIdent(discriminator) + ` TEXT NOT NULL`,
	}

	keys := sortedKeysExcluding(flat, "uid", discriminator)
	for _, k := range keys {
		typ := sqlTypeOf(flat[k])
		cols[k] = typ
		defs = append(defs, quoteIdent(k)+" "+typ)
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, quoteIdent(table), strings.Join(defs, ", "))
	if _, err := s.db.Exec(stmt); err != nil {
		return wrapBackend("create table", err)
	}
	s.catalog[table] = cols
	return nil
}

func (s *Store) addMissingColumns(table string, existing tableColumns, flat Record) error {
	missing := sortedKeysExcluding(flat, "uid")
	for _, k := range missing {
		if _, ok := existing[k]; ok {
			continue
		}
		typ := sqlTypeOf(flat[k])
		stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, quoteIdent(table), quoteIdent(k), typ)
		if _, err := s.db.Exec(stmt); err != nil {
			return wrapBackend("add column", err)
		}
		existing[k] = typ
	}
	return nil
}

func sortedKeysExcluding(m Record, skip ...string) []string {
	excl := map[string]bool{}
	for _, k := range skip {
		excl[k] = true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if excl[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Insert assigns a uid if the record doesn't already carry one, validates
// against the discriminator's schema when strict mode is on, ensures the
// target table and columns exist, and writes the row. It mirrors
// pyjsonlite.JSONLite.insert.
func (s *Store) Insert(record Record) (string, error) {
	discriminator, err := s.opts.Discriminator()
	if err != nil {
		return "", err
	}
	typeVal, ok := record[discriminator].(string)
	if !ok || typeVal == "" {
		return "", ErrMissingDiscriminator
	}

	item := stripEmpty(record)
	uid, hasUID := item["uid"].(string)
	if !hasUID || uid == "" {
		uid = typeVal + "--" + uuid.New().String()
		item["uid"] = uid
	}

	if err := s.validateIfStrict(item, typeVal); err != nil {
		return "", err
	}

	flat := flatten(item)
	if err := s.ensureTable(typeVal, discriminator, flat); err != nil {
		return "", err
	}
	if err := s.insertRow(typeVal, flat); err != nil {
		return "", err
	}
	return uid, nil
}

func (s *Store) validateIfStrict(item Record, typeVal string) error {
	strict, err := s.opts.Strict()
	if err != nil {
		return err
	}
	if !strict {
		return nil
	}
	causes, err := s.schemas.Validate(item, typeVal)
	if err != nil {
		return err
	}
	if len(causes) > 0 {
		return &ValidationError{Type: typeVal, Causes: causes}
	}
	return nil
}

func (s *Store) insertRow(table string, flat Record) error {
	cols := s.catalog[table]
	keys := sortedKeysExcluding(flat)
	placeholders := make([]string, len(keys))
	idents := make([]string, len(keys))
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		v, err := columnValue(cols[k], flat[k])
		if err != nil {
			return err
		}
		idents[i] = quoteIdent(k)
		placeholders[i] = "?"
		values[i] = v
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, quoteIdent(table),
		strings.Join(idents, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.Exec(stmt, values...); err != nil {
		return wrapBackend("insert", err)
	}
	return nil
}

// uidType returns the type prefix of a uid of the form "<type>--<uuid>".
func uidType(uid string) (string, bool) {
	idx := strings.LastIndex(uid, "--")
	if idx < 0 {
		return "", false
	}
	return uid[:idx], true
}

// Get returns the full record stored under uid.
func (s *Store) Get(uid string) (Record, error) {
	typeVal, ok := uidType(uid)
	if !ok {
		return nil, fmt.Errorf("%w: malformed uid %q", ErrNotFound, uid)
	}
	if _, ok := s.catalog[typeVal]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}

	stmt := fmt.Sprintf(`SELECT * FROM %s WHERE "uid" = ?`, quoteIdent(typeVal))
	rows, err := s.db.Query(stmt, uid)
	if err != nil {
		return nil, wrapBackend("get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	record, err := scanRecord(rows)
	if err != nil {
		return nil, wrapBackend("get", err)
	}
	return record, rows.Err()
}

// Update merges partial over the current record at uid. If partial changes
// the discriminator field, the record moves tables: the old row is deleted
// and the merged record re-inserted under a new uid that keeps the
// original uuid suffix. Otherwise it ensures any newly introduced columns
// exist and issues an UPDATE that sets exactly the keys present in the
// flattened partial, not the full merged record (SPEC_FULL.md §4.4,
// a deliberate simplification of pyjsonlite.JSONLite.update).
func (s *Store) Update(uid string, partial Record) (string, error) {
	current, err := s.Get(uid)
	if err != nil {
		return "", err
	}
	discriminator, err := s.opts.Discriminator()
	if err != nil {
		return "", err
	}
	oldType, _ := uidType(uid)

	merged := make(Record, len(current)+len(partial))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}

	if newType, changed := partial[discriminator].(string); changed && newType != oldType {
		suffix := strings.TrimPrefix(uid, oldType+"--")
		merged["uid"] = newType + "--" + suffix
		if err := s.deleteRow(oldType, uid); err != nil {
			return "", err
		}
		return s.Insert(merged)
	}

	item := stripEmpty(merged)
	if err := s.validateIfStrict(item, oldType); err != nil {
		return "", err
	}

	flatMerged := flatten(item)
	if err := s.ensureTable(oldType, discriminator, flatMerged); err != nil {
		return "", err
	}

	flatPartial := flatten(partial)
	if len(flatPartial) == 0 {
		return uid, nil
	}
	cols := s.catalog[oldType]
	keys := sortedKeysExcluding(flatPartial, "uid", discriminator)
	sets := make([]string, len(keys))
	values := make([]interface{}, 0, len(keys)+1)
	for i, k := range keys {
		v, err := columnValue(cols[k], flatPartial[k])
		if err != nil {
			return "", err
		}
		sets[i] = quoteIdent(k) + " = ?"
		values = append(values, v)
	}
	if len(sets) == 0 {
		return uid, nil
	}
	values = append(values, uid)
	stmt := fmt.Sprintf(`UPDATE %s SET %s WHERE "uid" = ?`, quoteIdent(oldType), strings.Join(sets, ", "))
	if _, err := s.db.Exec(stmt, values...); err != nil {
		return "", wrapBackend("update", err)
	}
	return uid, nil
}

func (s *Store) deleteRow(table, uid string) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE "uid" = ?`, quoteIdent(table))
	if _, err := s.db.Exec(stmt, uid); err != nil {
		return wrapBackend("delete", err)
	}
	return nil
}

// Condition is one flat key -> expected value pair used by Select.
type Condition map[string]interface{}

// Select returns every record of typeVal matching at least one of
// conditions (conditions are OR'd; keys within one Condition are AND'd).
// A condition key that is not already a known column of typeVal's table is
// rejected with ErrUnknownColumn rather than silently matching nothing
// (DESIGN.md, Open Question resolution on Select semantics). An unknown
// type returns an empty, non-nil cursor; an empty conditions list selects
// every record of typeVal.
func (s *Store) Select(typeVal string, conditions []Condition) (*Cursor, error) {
	cols, ok := s.catalog[typeVal]
	if !ok {
		return emptyCursor(), nil
	}

	var clauses []string
	var values []interface{}
	for _, cond := range conditions {
		keys := sortedKeysExcluding(cond)
		var parts []string
		for _, k := range keys {
			if _, known := cols[k]; !known {
				return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, k)
			}
			parts = append(parts, quoteIdent(k)+" = ?")
			values = append(values, cond[k])
		}
		if len(parts) > 0 {
			clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
		}
	}

	stmt := fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(typeVal))
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " OR ")
	}
	rows, err := s.db.Query(stmt, values...)
	if err != nil {
		return nil, wrapBackend("select", err)
	}
	return &Cursor{rows: rows}, nil
}

// All returns every record across every record table, in table-name order.
func (s *Store) All() (*Cursor, error) {
	tables, err := s.tableNames()
	if err != nil {
		return nil, err
	}
	sort.Strings(tables)
	return &Cursor{db: s.db, pendingTables: tables}, nil
}

// Query runs a caller-supplied read-only SQL statement and unflattens each
// result row, mirroring pyjsonlite.JSONLite.query.
func (s *Store) Query(sqlText string, args ...interface{}) (*Cursor, error) {
	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, wrapBackend("query", err)
	}
	return &Cursor{rows: rows}, nil
}

// Cursor is a lazy sequence of records. Callers may abandon it at any point
// by calling Close without exhausting Next, per spec.md §5's note that
// Select/All/Query results "may be abandoned simply by stopping iteration".
type Cursor struct {
	db            *sql.DB
	rows          *sql.Rows
	pendingTables []string
	err           error
}

func emptyCursor() *Cursor {
	return &Cursor{}
}

// Next advances the cursor, opening the next table's rows if the current
// table (or single query) is exhausted. It returns false once every row
// has been delivered or an error occurred; check Err afterward.
func (c *Cursor) Next() bool {
	for {
		if c.rows != nil {
			if c.rows.Next() {
				return true
			}
			c.rows.Close()
			c.rows = nil
		}
		if len(c.pendingTables) == 0 {
			return false
		}
		table := c.pendingTables[0]
		c.pendingTables = c.pendingTables[1:]
		rows, err := c.db.Query(fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(table)))
		if err != nil {
			c.err = wrapBackend("all", err)
			return false
		}
		c.rows = rows
	}
}

// Err returns the first error encountered while advancing the cursor.
func (c *Cursor) Err() error {
	return c.err
}

// Record unflattens the row the cursor is currently positioned at. Call it
// only after Next has returned true.
func (c *Cursor) Record() (Record, error) {
	return scanRecord(c.rows)
}

// Close releases the cursor's current underlying rows, if any. It is safe
// to call at any point, including before exhausting Next.
func (c *Cursor) Close() error {
	if c.rows != nil {
		return c.rows.Close()
	}
	return nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	raw := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	flat := Record{}
	for i, c := range cols {
		v := raw[i]
		if v == nil {
			continue
		}
		if b, ok := v.([]byte); ok {
			flat[c] = string(b)
			continue
		}
		flat[c] = v
	}
	return unflatten(flat), nil
}
