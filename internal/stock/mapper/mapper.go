// Package mapper resolves spreadsheet headers to canonical field names.
package mapper

import (
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/normalize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// synonyms is keyed by the lowercased header as typed by users.
var synonyms = map[string]string{
	"código": model.FieldKey,
	"codigo": model.FieldKey,
	"code":   model.FieldKey,
	"key":    model.FieldKey,

	"produto": model.FieldProduct,
	"product": model.FieldProduct,

	"categoria": model.FieldCategory,
	"category":  model.FieldCategory,

	"rua":    model.FieldStreet,
	"street": model.FieldStreet,
	"aisle":  model.FieldStreet,

	"nível": model.FieldLevel,
	"nivel": model.FieldLevel,
	"level": model.FieldLevel,

	"prédio":   model.FieldBuilding,
	"predio":   model.FieldBuilding,
	"building": model.FieldBuilding,

	"qtde":       model.FieldQuantity,
	"qtd":        model.FieldQuantity,
	"quantidade": model.FieldQuantity,
	"quantity":   model.FieldQuantity,
	"qty":        model.FieldQuantity,
}

// Column is one input header resolved to its field.
type Column struct {
	Index int
	Raw   string
	Field string
}

// FieldName resolves a single header.
func FieldName(raw string) string {
	low := cases.Lower(language.Und).String(strings.TrimSpace(raw))
	if field, ok := synonyms[low]; ok {
		return field
	}
	name := normalize.Name(raw)
	if field, ok := synonyms[name]; ok {
		return field
	}
	return name
}

func MapHeaders(raw []string) []Column {
	cols := make([]Column, len(raw))
	for i, h := range raw {
		cols[i] = Column{Index: i, Raw: h, Field: FieldName(h)}
	}
	return cols
}

// FindKeyColumn returns the first column mapped to field.
func FindKeyColumn(cols []Column, field string) (Column, bool) {
	for _, c := range cols {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// FieldsFor lists the distinct fields implied by cols with their declared
// types, in header order.
func FieldsFor(cols []Column) []model.Field {
	seen := make(map[string]bool, len(cols))
	fields := make([]model.Field, 0, len(cols))
	for _, c := range cols {
		if seen[c.Field] {
			continue
		}
		seen[c.Field] = true
		fields = append(fields, model.Field{Name: c.Field, Type: model.DeclaredType(c.Field)})
	}
	return fields
}
