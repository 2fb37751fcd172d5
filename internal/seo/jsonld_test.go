package seo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProductOffer(t *testing.T) {
	t.Parallel()

	m := Product("Scarf", "", "https://shop.example/products/scarf", "", "SC-1", Offer{
		Price: "25.00", Currency: "USD", InStock: false,
	})
	offer := m["offers"].(map[string]any)
	require.Equal(t, "https://schema.org/OutOfStock", offer["availability"])
	require.Equal(t, "25.00", offer["price"])
	require.NotContains(t, m, "description")

	noOffer := Product("Scarf", "", "", "", "", Offer{})
	require.NotContains(t, noOffer, "offers")
}

func TestJSON(t *testing.T) {
	t.Parallel()

	require.Equal(t, `{"@context":"https://schema.org","@type":"Event","name":"Launch"}`, string(JSON(Event("Launch", "", ""))))
}
