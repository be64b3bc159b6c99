package domain

// Row is an ordered mapping from column name to scalar value. Column order
// is significant: on the first write to a sheet it becomes the header order.
type Row struct {
	Columns []string
	Values  map[string]any
}

func NewRow() Row {
	return Row{Values: map[string]any{}}
}

// Set assigns value to the named column, appending the column to the order
// when it is new.
func (r *Row) Set(name string, value any) {
	if _, ok := r.Values[name]; !ok {
		r.Columns = append(r.Columns, name)
	}
	r.Values[name] = value
}

func (r Row) Get(name string) (any, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Drop removes the named column. Dropping an absent column is a no-op.
func (r *Row) Drop(name string) {
	if _, ok := r.Values[name]; !ok {
		return
	}
	delete(r.Values, name)
	for i, col := range r.Columns {
		if col == name {
			r.Columns = append(r.Columns[:i], r.Columns[i+1:]...)
			break
		}
	}
}

// MoveToEnd shifts the named column to the last position, preserving the
// relative order of the others. It reports whether the column exists.
func (r *Row) MoveToEnd(name string) bool {
	if _, ok := r.Values[name]; !ok {
		return false
	}
	for i, col := range r.Columns {
		if col == name {
			r.Columns = append(append(r.Columns[:i:i], r.Columns[i+1:]...), name)
			break
		}
	}
	return true
}

// Clone returns a copy that shares no state with the receiver.
func (r Row) Clone() Row {
	clone := Row{
		Columns: append([]string(nil), r.Columns...),
		Values:  make(map[string]any, len(r.Values)),
	}
	for k, v := range r.Values {
		clone.Values[k] = v
	}
	return clone
}
