package domain

// AddColumn injects one column into every row of a batch. An empty Values
// slice broadcasts a nil value; a non-empty one must match the batch length.
type AddColumn struct {
	Name   string
	Values []any
}

// ShapePolicy is the fixed column shaping applied to every batch before it
// is merged into a sheet: inject Add columns, drop Remove columns, then move
// Trailing columns to the end in the order given.
type ShapePolicy struct {
	Add      []AddColumn
	Remove   []string
	Trailing []string
}
