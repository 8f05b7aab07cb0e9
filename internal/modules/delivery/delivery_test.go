package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInTable(t *testing.T) {
	regions := Regions()
	require.Len(t, regions, 58)
	for i, w := range regions {
		assert.Equal(t, i+1, w.Code)
		assert.Greater(t, w.Price, 0.0, w.Key())
	}
	assert.Equal(t, "16 - الجزائر", regions[15].Key())
	assert.Equal(t, "01 - أدرار", regions[0].Key())
}

func TestPrice(t *testing.T) {
	assert.Equal(t, 400.0, Price("16 - الجزائر"))
	assert.Equal(t, 400.0, Price("  16 - الجزائر "))
	assert.Equal(t, 500.0, Price("99 - Atlantis"))
	assert.Equal(t, 500.0, Price(""))
	assert.Equal(t, 500.0, DefaultPrice)
	assert.True(t, Known("31 - وهران"))
	assert.False(t, Known("Oran"))
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte("default_price: 1\nwilayas:\n  - {code: 1, name: a, price: 2}\n  - {code: 1, name: a, price: 3}\n"))
	assert.Error(t, err)

	tbl, err := Parse([]byte("default_price: 700\nwilayas:\n  - {code: 3, name: x, price: 10}\n"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, tbl.Price("03 - x"))
	assert.Equal(t, 700.0, tbl.Price("03 - y"))
}
