package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotesMatchesCaseInsensitively(t *testing.T) {
	m := NewMandiSource()

	quotes, err := m.Quotes(context.Background(), []string{"Wheat", " RICE ", "corn"})
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, "wheat", quotes[0].Commodity)
	assert.Equal(t, "rice", quotes[1].Commodity)
	assert.Equal(t, "corn", quotes[2].Commodity)
}

func TestQuotesOmitsUntrackedCrops(t *testing.T) {
	m := NewMandiSource()

	quotes, err := m.Quotes(context.Background(), []string{"wheat", "saffron", "quinoa"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "wheat", quotes[0].Commodity)
}

func TestQuotesEmptyCropList(t *testing.T) {
	m := NewMandiSource()

	quotes, err := m.Quotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestQuotesPreservesRequestOrder(t *testing.T) {
	m := NewMandiSource()

	quotes, err := m.Quotes(context.Background(), []string{"onion", "wheat"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "onion", quotes[0].Commodity)
	assert.Equal(t, "wheat", quotes[1].Commodity)
}
