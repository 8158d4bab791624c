package stock

import "errors"

var (
	ErrMissingKeyColumn = errors.New("spreadsheet has no key column (e.g. 'Código')")
	ErrEmptyKey         = errors.New("record key is empty")
	ErrUnknownField     = errors.New("field is not part of the stock schema")
	ErrInvalidFieldName = errors.New("invalid field name")
	ErrInvalidQuantity  = errors.New("quantity is not a number")
	ErrImportLocked     = errors.New("another import is running, please try again later (lock)")
	ErrRecordNotFound   = errors.New("record not found")
)
