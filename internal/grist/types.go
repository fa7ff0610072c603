package grist

// Column type identifiers as reported by the table structure endpoint.
const (
	TypeDate     = "Date"
	TypeDateTime = "DateTime"
	TypeNumeric  = "Numeric"
	TypeInt      = "Int"
	TypeText     = "Text"
)

// Column describes one destination column: its identifier, display label and
// declared type. The type drives how a source field is normalized before
// upload.
type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Record is one destination row as returned by the records endpoint.
type Record struct {
	ID     int64          `json:"id"`
	Fields map[string]any `json:"fields"`
}

// RecordFields is the field map submitted for one new row.
type RecordFields map[string]any

// Schema is the destination table structure keyed by column id.
type Schema map[string]Column

// SchemaFromColumns builds the id-keyed lookup used by the record mapper.
func SchemaFromColumns(cols []Column) Schema {
	s := make(Schema, len(cols))
	for _, c := range cols {
		s[c.ID] = c
	}
	return s
}

// HasColumn reports whether the schema declares the given column id.
func (s Schema) HasColumn(id string) bool {
	_, ok := s[id]
	return ok
}
