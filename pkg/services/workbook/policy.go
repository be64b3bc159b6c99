package workbook

import (
	"github.com/de-tools/hub-export/pkg/models/domain"
)

// shapeBatch applies the column-shape policy to a copy of the batch: inject
// Add columns (an empty value list broadcasts nil, anything else must match
// the batch length), drop Remove columns, then move each Trailing column to
// the end in the order given. Removing a column absent from the row set is a
// no-op; only a missing Trailing column is a schema violation. The input
// rows are left untouched.
func shapeBatch(rows []domain.Row, policy domain.ShapePolicy) ([]domain.Row, error) {
	shaped := make([]domain.Row, len(rows))
	for i, row := range rows {
		shaped[i] = row.Clone()
	}

	for _, add := range policy.Add {
		values := add.Values
		if len(values) == 0 {
			values = make([]any, len(shaped))
		}
		if len(values) != len(shaped) {
			return nil, schemaErrorf(
				"column %q carries %d values for a batch of %d rows",
				add.Name, len(add.Values), len(shaped))
		}
		for i := range shaped {
			shaped[i].Set(add.Name, values[i])
		}
	}

	for _, name := range policy.Remove {
		for i := range shaped {
			shaped[i].Drop(name)
		}
	}

	for _, name := range policy.Trailing {
		for i := range shaped {
			if !shaped[i].MoveToEnd(name) {
				return nil, schemaErrorf("column %q does not exist in the row set", name)
			}
		}
	}

	return shaped, nil
}
