package repository

import (
	"context"
	"math"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/database/sqlite"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sqlite.NewSQLite(&sqlite.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteRepository(db, "stock_items")
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestMigrateCreatesBaseline(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	schema, err := repo.Schema(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"key", "product", "category", "street", "level", "building", "quantity"}, schema.Names())

	typ, _ := schema.TypeOf(model.FieldQuantity)
	require.Equal(t, model.TypeInteger, typ)

	// running it again is a no-op
	require.NoError(t, repo.Migrate(ctx))
	again, err := repo.Schema(ctx)
	require.NoError(t, err)
	require.Equal(t, schema, again)
}

func TestMigrateRejectsUnsafeTable(t *testing.T) {
	db, err := sqlite.NewSQLite(&sqlite.Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	err = NewSQLiteRepository(db, `items"; DROP TABLE x; --`).Migrate(context.Background())
	require.ErrorIs(t, err, stock.ErrInvalidFieldName)
}

func TestEnsureFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertFields(ctx, "A1", map[string]model.Value{model.FieldProduct: model.Text("Widget")}))

	fields := []model.Field{{Name: "warehouse_zone", Type: model.TypeText}, {Name: "warehouse_zone", Type: model.TypeText}}
	require.NoError(t, repo.EnsureFields(ctx, fields))
	require.NoError(t, repo.EnsureFields(ctx, fields))

	schema, err := repo.Schema(ctx)
	require.NoError(t, err)
	require.True(t, schema.Has("warehouse_zone"))
	require.Len(t, schema, 8)

	rec, err := repo.Get(ctx, "A1")
	require.NoError(t, err)
	require.Equal(t, "Widget", rec.Get(model.FieldProduct).String())
	require.True(t, rec.Get("warehouse_zone").IsNull())
}

func TestEnsureFieldsKeepsExistingType(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsureFields(ctx, []model.Field{{Name: model.FieldProduct, Type: model.TypeInteger}}))

	schema, err := repo.Schema(ctx)
	require.NoError(t, err)
	typ, _ := schema.TypeOf(model.FieldProduct)
	require.Equal(t, model.TypeText, typ)
}

func TestEnsureFieldsIsAllOrNothing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.EnsureFields(ctx, []model.Field{
		{Name: "zone", Type: model.TypeText},
		{Name: "Bad Name", Type: model.TypeText},
	})
	require.ErrorIs(t, err, stock.ErrInvalidFieldName)

	err = repo.EnsureFields(ctx, []model.Field{
		{Name: "zone", Type: model.TypeText},
		{Name: "weight", Type: "REAL"},
	})
	require.ErrorIs(t, err, stock.ErrInvalidFieldName)

	schema, err := repo.Schema(ctx)
	require.NoError(t, err)
	require.False(t, schema.Has("zone"))
}

func TestUpsertFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.UpsertFields(ctx, "A1", map[string]model.Value{
		model.FieldProduct:  model.Text("Widget"),
		model.FieldQuantity: model.Int(5),
	})
	require.NoError(t, err)

	err = repo.UpsertFields(ctx, "A1", map[string]model.Value{model.FieldQuantity: model.Int(3)})
	require.NoError(t, err)

	rec, err := repo.Get(ctx, "A1")
	require.NoError(t, err)
	require.Equal(t, "A1", rec.Key)
	require.Equal(t, "Widget", rec.Get(model.FieldProduct).String())
	qty, ok := rec.Get(model.FieldQuantity).Int64()
	require.True(t, ok)
	require.Equal(t, int64(3), qty)
	require.True(t, rec.Get(model.FieldCategory).IsNull())

	// key only: creates, then leaves the record alone
	require.NoError(t, repo.UpsertFields(ctx, "B2", nil))
	require.NoError(t, repo.UpsertFields(ctx, "A1", nil))
	rec, err = repo.Get(ctx, "A1")
	require.NoError(t, err)
	require.Equal(t, "Widget", rec.Get(model.FieldProduct).String())

	// explicit null clears a field
	require.NoError(t, repo.UpsertFields(ctx, "A1", map[string]model.Value{model.FieldProduct: model.Null()}))
	rec, err = repo.Get(ctx, "A1")
	require.NoError(t, err)
	require.True(t, rec.Get(model.FieldProduct).IsNull())
}

func TestUpsertFieldsGuards(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.UpsertFields(ctx, "A1", map[string]model.Value{"warehouse_zone": model.Text("Z")})
	require.ErrorIs(t, err, stock.ErrUnknownField)

	err = repo.UpsertFields(ctx, "  ", map[string]model.Value{model.FieldProduct: model.Text("Widget")})
	require.ErrorIs(t, err, stock.ErrEmptyKey)

	rec, err := repo.Get(ctx, "A1")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestUpsertFieldsSeesFieldsAddedElsewhere(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	other := NewSQLiteRepository(repo.DB, "stock_items")
	require.NoError(t, other.EnsureFields(ctx, []model.Field{{Name: "zone", Type: model.TypeText}}))

	require.NoError(t, repo.UpsertFields(ctx, "A1", map[string]model.Value{"zone": model.Text("north")}))
}

func TestGetNotFound(t *testing.T) {
	repo := newTestRepository(t)

	rec, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestAllAndSearch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertFields(ctx, "B-200", map[string]model.Value{model.FieldProduct: model.Text("Parafuso Sextavado")}))
	require.NoError(t, repo.UpsertFields(ctx, "A-100", map[string]model.Value{model.FieldProduct: model.Text("CONEXÃO PVC")}))
	require.NoError(t, repo.UpsertFields(ctx, "C-300", map[string]model.Value{model.FieldCategory: model.Text("parafuso")}))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"A-100", "B-200", "C-300"}, keys(all))

	found, err := repo.Search(ctx, &dto.SearchFilters{Query: "PARAFUSO"})
	require.NoError(t, err)
	require.Equal(t, []string{"B-200"}, keys(found))

	found, err = repo.Search(ctx, &dto.SearchFilters{Query: "conexão"})
	require.NoError(t, err)
	require.Equal(t, []string{"A-100"}, keys(found))

	found, err = repo.Search(ctx, &dto.SearchFilters{Query: "a-1"})
	require.NoError(t, err)
	require.Equal(t, []string{"A-100"}, keys(found))

	found, err = repo.Search(ctx, &dto.SearchFilters{Query: "parafuso", Fields: []string{model.FieldCategory}})
	require.NoError(t, err)
	require.Equal(t, []string{"C-300"}, keys(found))

	found, err = repo.Search(ctx, &dto.SearchFilters{Query: "  "})
	require.NoError(t, err)
	require.Len(t, found, 3)

	found, err = repo.Search(ctx, nil)
	require.NoError(t, err)
	require.Len(t, found, 3)

	_, err = repo.Search(ctx, &dto.SearchFilters{Query: "x", Fields: []string{"nope"}})
	require.ErrorIs(t, err, stock.ErrUnknownField)
}

func keys(records []model.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Key
	}
	return out
}

func TestToValueFloats(t *testing.T) {
	n, ok := toValue(float64(42)).Int64()
	require.True(t, ok)
	require.Equal(t, int64(42), n)

	require.Equal(t, model.Text("2.5"), toValue(2.5))
	require.Equal(t, model.Text("NaN"), toValue(math.NaN()))
	require.Equal(t, model.KindText, toValue(math.Inf(1)).Kind())
	require.Equal(t, model.Text("1000000000000000000000000000000"), toValue(1e30))
	require.Equal(t, model.KindText, toValue(float64(math.MaxInt64)).Kind())

	n, ok = toValue(float64(math.MinInt64)).Int64()
	require.True(t, ok)
	require.Equal(t, int64(math.MinInt64), n)
}
