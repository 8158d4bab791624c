package model

type FieldType string

const (
	TypeText    FieldType = "TEXT"
	TypeInteger FieldType = "INTEGER"
)

type Field struct {
	Name string    `db:"name"`
	Type FieldType `db:"type"`
}

// Schema lists the table columns in declaration order, key first.
type Schema []Field

func (s Schema) Has(name string) bool {
	_, ok := s.TypeOf(name)
	return ok
}

func (s Schema) TypeOf(name string) (FieldType, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Type, true
		}
	}
	return "", false
}

func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// BaselineFields are ensured on every store at startup.
func BaselineFields() []Field {
	return []Field{
		{Name: FieldProduct, Type: TypeText},
		{Name: FieldCategory, Type: TypeText},
		{Name: FieldStreet, Type: TypeText},
		{Name: FieldLevel, Type: TypeText},
		{Name: FieldBuilding, Type: TypeText},
		{Name: FieldQuantity, Type: TypeInteger},
	}
}

// DeclaredType is the type a newly discovered field receives.
func DeclaredType(name string) FieldType {
	if name == FieldQuantity {
		return TypeInteger
	}
	return TypeText
}
