package mapper

import (
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/stretchr/testify/require"
)

func TestFieldNameSynonyms(t *testing.T) {
	for _, h := range []string{"Código", "codigo", "CÓDIGO", " código ", "Code", "KEY"} {
		require.Equal(t, model.FieldKey, FieldName(h), "header %q", h)
	}
	require.Equal(t, model.FieldQuantity, FieldName("Qtde"))
	require.Equal(t, model.FieldQuantity, FieldName("Quantidade"))
	require.Equal(t, model.FieldQuantity, FieldName("qty"))
	require.Equal(t, model.FieldQuantity, FieldName("Qtde."))
	require.Equal(t, model.FieldLevel, FieldName("NÍVEL"))
	require.Equal(t, model.FieldBuilding, FieldName("Prédio"))
	require.Equal(t, model.FieldStreet, FieldName("Rua"))
}

func TestFieldNameFallsBackToNormalizer(t *testing.T) {
	require.Equal(t, "warehouse_zone", FieldName("Warehouse Zone"))
	require.Equal(t, "col", FieldName("???"))
}

func TestFieldNameStable(t *testing.T) {
	for _, h := range []string{"Código", "Warehouse Zone", "", "Qtde"} {
		require.Equal(t, FieldName(h), FieldName(h))
	}
}

func TestMapHeadersAndKeyColumn(t *testing.T) {
	cols := MapHeaders([]string{"Produto", "Código", "codigo", "Qtde", "Zona"})

	require.Len(t, cols, 5)
	require.Equal(t, Column{Index: 0, Raw: "Produto", Field: model.FieldProduct}, cols[0])

	key, ok := FindKeyColumn(cols, model.FieldKey)
	require.True(t, ok)
	require.Equal(t, 1, key.Index)
	require.Equal(t, "Código", key.Raw)

	_, ok = FindKeyColumn(MapHeaders([]string{"Produto", "Qtde"}), model.FieldKey)
	require.False(t, ok)
}

func TestFieldsFor(t *testing.T) {
	fields := FieldsFor(MapHeaders([]string{"Código", "codigo", "Quantidade", "Zona"}))

	require.Equal(t, []model.Field{
		{Name: model.FieldKey, Type: model.TypeText},
		{Name: model.FieldQuantity, Type: model.TypeInteger},
		{Name: "zona", Type: model.TypeText},
	}, fields)
}
