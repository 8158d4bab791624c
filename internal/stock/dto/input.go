package dto

type SaveRecordInput struct {
	Key        string            `validate:"required"`
	Fields     map[string]string // Raw header -> value
	Quantity   *string
	ExtraName  string `validate:"required_with=ExtraValue"`
	ExtraValue string
	// Overwrite writes every named field, blank values as null.
	Overwrite bool
}

type SaveRecordResult struct {
	Key     string
	Created bool
	Fields  []string
}
