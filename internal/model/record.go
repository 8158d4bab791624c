package model

import "strconv"

// Canonical field names of the stock table.
const (
	FieldKey      = "key"
	FieldProduct  = "product"
	FieldCategory = "category"
	FieldStreet   = "street"
	FieldLevel    = "level"
	FieldBuilding = "building"
	FieldQuantity = "quantity"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindText
	KindInteger
)

// Value is a single stored cell: text, integer or null.
type Value struct {
	kind ValueKind
	text string
	num  int64
}

func Text(s string) Value { return Value{kind: KindText, text: s} }

func Int(n int64) Value { return Value{kind: KindInteger, num: n} }

func Null() Value { return Value{} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// String renders the value for display and export. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	default:
		return ""
	}
}

// Int64 returns the integer payload; ok is false for non-integer values.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.num, true
}

// Any returns the value as a database/sql argument.
func (v Value) Any() interface{} {
	switch v.kind {
	case KindText:
		return v.text
	case KindInteger:
		return v.num
	default:
		return nil
	}
}

type Record struct {
	Key    string
	Fields map[string]Value // Missing entries read as null
}

func NewRecord(key string) *Record {
	return &Record{Key: key, Fields: map[string]Value{}}
}

func (r *Record) Get(field string) Value {
	if field == FieldKey {
		return Text(r.Key)
	}
	if r.Fields == nil {
		return Null()
	}
	return r.Fields[field]
}
