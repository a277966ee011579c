package cart

import (
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	items := []LineItem{
		{ProductID: 1, Title: "Mascara", Price: decimal.RequireFromString("9.99"), Quantity: 2},
		{ProductID: 5, Title: "Lipstick", Price: decimal.NewFromInt(13), Thumbnail: "thumb.png", Quantity: 1},
	}

	data, err := Encode(items)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range items {
		require.Equal(t, items[i].ProductID, got[i].ProductID)
		require.Equal(t, items[i].Quantity, got[i].Quantity)
		require.Equal(t, items[i].Title, got[i].Title)
		require.Equal(t, items[i].Thumbnail, got[i].Thumbnail)
		require.True(t, items[i].Price.Equal(got[i].Price), "price %s != %s", items[i].Price, got[i].Price)
	}
}

func TestEncodeEmptyWritesEmptyList(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"state":{"items":[]},"version":0}`, string(data))
}

func TestDecodeAcceptsNumericPrices(t *testing.T) {
	got, err := Decode([]byte(`{"state":{"items":[{"id":3,"title":"x","price":12.5,"quantity":2}]},"version":0}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Subtotal().Equal(decimal.NewFromInt(25)))
}

func TestDecodeRepairsInvariants(t *testing.T) {
	raw := `{"state":{"items":[
		{"id":1,"price":"2","quantity":2},
		{"id":2,"price":"2","quantity":0},
		{"id":1,"price":"7","quantity":3},
		{"id":4,"price":"1","quantity":-1}
	]},"version":0}`

	got, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].ProductID)
	require.Equal(t, 5, got[0].Quantity)
	require.True(t, got[0].Price.Equal(decimal.NewFromInt(2)), "first snapshot should win")
}

func TestDecodeCorruptionCode(t *testing.T) {
	cases := map[string]string{
		"truncated":     `{"state":{"items":[`,
		"null state":    `{"state":null,"version":0}`,
		"items type":    `{"state":{"items":"nope"},"version":0}`,
		"empty payload": ``,
	}
	for name, raw := range cases {
		_, err := Decode([]byte(raw))
		require.Error(t, err, name)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStorageCorruption), "%s: %v", name, err)
	}
}
