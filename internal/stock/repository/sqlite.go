package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/stock/normalize"
	"github.com/jmoiron/sqlx"
	"golang.org/x/text/cases"
)

type SQLiteRepository struct {
	DB    *sqlx.DB
	table string

	mu     sync.Mutex
	schema model.Schema // Last schema read from or written to the store
}

func NewSQLiteRepository(db *sqlx.DB, table string) *SQLiteRepository {
	return &SQLiteRepository{DB: db, table: table}
}

// Migrate creates the stock table when missing and ensures the baseline fields.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if !normalize.IsCanonical(r.table) {
		return fmt.Errorf("%w: table %q", stock.ErrInvalidFieldName, r.table)
	}
	return r.EnsureFields(ctx, model.BaselineFields())
}

func (r *SQLiteRepository) Schema(ctx context.Context) (model.Schema, error) {
	schema, err := readSchema(ctx, r.DB, r.table)
	if err != nil {
		return nil, err
	}
	r.setSchema(schema)
	return schema, nil
}

// EnsureFields adds every missing field in one transaction. Fields that
// already exist keep their declared type.
func (r *SQLiteRepository) EnsureFields(ctx context.Context, fields []model.Field) error {
	for _, f := range fields {
		if !normalize.IsCanonical(f.Name) {
			return fmt.Errorf("%w: %q", stock.ErrInvalidFieldName, f.Name)
		}
		if f.Type != model.TypeText && f.Type != model.TypeInteger {
			return fmt.Errorf("%w: %q has unsupported type %q", stock.ErrInvalidFieldName, f.Name, f.Type)
		}
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createQuery := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY)`, quote(r.table), quote(model.FieldKey))
	if _, err := tx.ExecContext(ctx, createQuery); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}

	schema, err := readSchema(ctx, tx, r.table)
	if err != nil {
		return err
	}

	for _, f := range fields {
		if schema.Has(f.Name) {
			continue
		}
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, quote(r.table), quote(f.Name), f.Type)
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("failed to add field %s: %w", f.Name, err)
		}
		schema = append(schema, f)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	r.setSchema(schema)
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*model.Record, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s = ?`, quote(r.table), quote(model.FieldKey))

	row := map[string]interface{}{}
	err := r.DB.QueryRowxContext(ctx, query, key).MapScan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return toRecord(row), nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s`, quote(r.table), quote(model.FieldKey))

	rows, err := r.DB.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		records = append(records, *toRecord(row))
	}
	return records, rows.Err()
}

// Search matches the query as a case-insensitive substring of any of the
// filter fields. SQLite LIKE only folds ASCII, so matching happens here.
func (r *SQLiteRepository) Search(ctx context.Context, f *dto.SearchFilters) ([]model.Record, error) {
	fields := []string{model.FieldKey, model.FieldProduct}
	query := ""
	if f != nil {
		query = strings.TrimSpace(f.Query)
		if len(f.Fields) > 0 {
			fields = f.Fields
		}
	}

	schema, err := r.Schema(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range fields {
		if !schema.Has(name) {
			return nil, fmt.Errorf("%w: %s", stock.ErrUnknownField, name)
		}
	}

	records, err := r.All(ctx)
	if err != nil || query == "" {
		return records, err
	}

	folder := cases.Fold()
	needle := folder.String(query)
	matches := []model.Record{}
	for _, rec := range records {
		for _, name := range fields {
			if strings.Contains(folder.String(rec.Get(name).String()), needle) {
				matches = append(matches, rec)
				break
			}
		}
	}
	return matches, nil
}

// UpsertFields writes exactly the given fields, creating the record when
// the key is new. It never adds columns.
func (r *SQLiteRepository) UpsertFields(ctx context.Context, key string, values map[string]model.Value) error {
	if strings.TrimSpace(key) == "" {
		return stock.ErrEmptyKey
	}

	names := make([]string, 0, len(values))
	for name := range values {
		if name != model.FieldKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	if err := r.checkFields(ctx, names); err != nil {
		return err
	}

	cols := []string{quote(model.FieldKey)}
	args := []interface{}{key}
	sets := make([]string, 0, len(names))
	for _, name := range names {
		cols = append(cols, quote(name))
		args = append(args, values[name].Any())
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", quote(name), quote(name)))
	}

	onConflict := "DO NOTHING"
	if len(sets) > 0 {
		onConflict = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s`,
		quote(r.table),
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		quote(model.FieldKey),
		onConflict,
	)
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) checkFields(ctx context.Context, names []string) error {
	r.mu.Lock()
	schema := r.schema
	r.mu.Unlock()

	refreshed := false
	for _, name := range names {
		if schema.Has(name) {
			continue
		}
		if !refreshed {
			// The cache may predate a change made through another handle.
			fresh, err := r.Schema(ctx)
			if err != nil {
				return err
			}
			schema, refreshed = fresh, true
			if schema.Has(name) {
				continue
			}
		}
		return fmt.Errorf("%w: %s", stock.ErrUnknownField, name)
	}
	return nil
}

func (r *SQLiteRepository) setSchema(s model.Schema) {
	r.mu.Lock()
	r.schema = s
	r.mu.Unlock()
}

type tableInfo struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

func readSchema(ctx context.Context, q sqlx.QueryerContext, table string) (model.Schema, error) {
	var cols []tableInfo
	err := sqlx.SelectContext(ctx, q, &cols, `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}

	schema := make(model.Schema, 0, len(cols))
	for _, c := range cols {
		typ := model.TypeText
		if strings.Contains(strings.ToUpper(c.Type), "INT") {
			typ = model.TypeInteger
		}
		schema = append(schema, model.Field{Name: c.Name, Type: typ})
	}
	return schema, nil
}

func toRecord(row map[string]interface{}) *model.Record {
	rec := model.NewRecord("")
	for name, raw := range row {
		v := toValue(raw)
		if name == model.FieldKey {
			rec.Key = v.String()
			continue
		}
		if !v.IsNull() {
			rec.Fields[name] = v
		}
	}
	return rec
}

func toValue(raw interface{}) model.Value {
	switch v := raw.(type) {
	case nil:
		return model.Null()
	case string:
		return model.Text(v)
	case []byte:
		return model.Text(string(v))
	case int64:
		return model.Int(v)
	case float64:
		if math.Trunc(v) == v && v >= math.MinInt64 && v < math.MaxInt64 {
			return model.Int(int64(v))
		}
		return model.Text(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return model.Text(fmt.Sprint(v))
	}
}

// quote is only applied to names that passed normalize.IsCanonical or to
// fixed identifiers.
func quote(ident string) string {
	return `"` + ident + `"`
}
