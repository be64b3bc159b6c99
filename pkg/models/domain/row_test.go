package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRow_SetKeepsColumnOrder(t *testing.T) {
	row := NewRow()
	row.Set("z", 1)
	row.Set("a", 2)
	row.Set("m", 3)
	row.Set("a", 4) // overwrite must not reorder

	assert.Equal(t, []string{"z", "a", "m"}, row.Columns)
	v, ok := row.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestRow_Drop(t *testing.T) {
	row := NewRow()
	row.Set("a", 1)
	row.Set("b", 2)

	row.Drop("a")
	row.Drop("missing")

	assert.Equal(t, []string{"b"}, row.Columns)
	_, ok := row.Get("a")
	assert.False(t, ok)
}

func TestRow_MoveToEnd(t *testing.T) {
	row := NewRow()
	row.Set("a", 1)
	row.Set("b", 2)
	row.Set("c", 3)

	assert.True(t, row.MoveToEnd("a"))
	assert.Equal(t, []string{"b", "c", "a"}, row.Columns)

	assert.False(t, row.MoveToEnd("missing"))
}

func TestRow_CloneIsIndependent(t *testing.T) {
	row := NewRow()
	row.Set("a", 1)

	clone := row.Clone()
	clone.Set("b", 2)
	clone.Set("a", 9)

	assert.Equal(t, []string{"a"}, row.Columns)
	v, _ := row.Get("a")
	assert.Equal(t, 1, v)
}
