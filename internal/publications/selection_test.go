package publications

import (
	"testing"

	"hydrogen-admin/internal/services/shopify"

	"github.com/stretchr/testify/assert"
)

var channels = []shopify.Publication{
	{ID: "p1", Name: "Online Store"},
	{ID: "p2", Name: "Shop"},
	{ID: "p3", Name: "Point of Sale"},
}

func TestSelectionDefaultsToAll(t *testing.T) {
	s := NewSelection(channels)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"Online Store", "Shop", "Point of Sale"}, s.Names())
}

func TestToggleSelectAllDeselectAll(t *testing.T) {
	s := NewSelection(channels)

	s.Toggle("p2")
	assert.False(t, s.IsSelected("p2"))
	assert.Equal(t, []string{"Online Store", "Point of Sale"}, s.Names())

	s.Toggle("unknown")
	assert.Equal(t, 2, s.Len())

	s.DeselectAll()
	assert.Equal(t, 0, s.Len())

	s.SelectAll()
	assert.Equal(t, 3, s.Len())
}

func TestOnlyIgnoresUnknownIDs(t *testing.T) {
	s := NewSelection(channels)
	s.Only([]string{"p3", "nope", "p1"})
	assert.Equal(t, []string{"Online Store", "Point of Sale"}, s.Names())
}

func TestSyncKeepsIntersectionOnceTouched(t *testing.T) {
	s := NewSelection(channels)
	s.Toggle("p1")

	s.Sync([]shopify.Publication{{ID: "p1", Name: "Online Store"}, {ID: "p2", Name: "Shop"}, {ID: "p4", Name: "Google"}})
	assert.Equal(t, []string{"Shop"}, s.Names())
}

func TestSyncUntouchedSelectsNewList(t *testing.T) {
	s := NewSelection(nil)
	assert.Equal(t, 0, s.Len())

	s.Sync(channels)
	assert.Equal(t, 3, s.Len())
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "Shop", NameOf(channels, "p2"))
	assert.Equal(t, "p9", NameOf(channels, "p9"))
}
