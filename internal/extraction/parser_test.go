package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		envelope Envelope
		names    []string
	}{
		{"bare array", `[{"barang":"Aqua","jumlah":2,"harga":5000}]`, EnvelopeBare, []string{"Aqua"}},
		{"bare array with whitespace", "\n  [{\"barang\":\"Aqua\",\"jumlah\":2,\"harga\":5000}]  \n", EnvelopeBare, []string{"Aqua"}},
		{"empty array", `[]`, EnvelopeBare, []string{}},
		{"fenced json", "Berikut datanya:\n```json\n[{\"barang\":\"Kopi\",\"jumlah\":1,\"harga\":4000}]\n```\nSemoga membantu.", EnvelopeFenced, []string{"Kopi"}},
		{"fenced without language", "```\n[{\"barang\":\"Kopi\",\"jumlah\":1,\"harga\":4000}]\n```", EnvelopeFenced, []string{"Kopi"}},
		{"array in prose", `Here you go: [{"barang":"Teh","jumlah":0,"harga":3000}] thanks`, EnvelopeProse, []string{"Teh"}},
		{"array followed by prose", "[{\"barang\":\"Teh\",\"jumlah\":1,\"harga\":3000}]\nThat is all.", EnvelopeProse, []string{"Teh"}},
		{"multiline prose", "Hasil:\n[\n  {\"barang\": \"Aqua\", \"jumlah\": 2, \"harga\": 5000},\n  {\"barang\": \"Indomie goreng\", \"jumlah\": 3, \"harga\": 3500}\n]", EnvelopeProse, []string{"Aqua", "Indomie goreng"}},
		{"numbers as strings", `[{"barang":"Aqua","jumlah":"2","harga":"5000"}]`, EnvelopeBare, []string{"Aqua"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseReply(tt.content)
			require.True(t, res.Ok(), "unexpected error: %v", res.Err)
			assert.Equal(t, tt.envelope, res.Envelope)
			names := make([]string, 0, len(res.Items))
			for _, it := range res.Items {
				names = append(names, it.Name)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestParseReply_KeepsValuesVerbatim(t *testing.T) {
	res := ParseReply(`[{"barang":"Teh","jumlah":0,"harga":3000},{"barang":"Gula","jumlah":1.5},{"barang":"Kopi","jumlah":null,"harga":-1}]`)
	require.True(t, res.Ok())
	require.Len(t, res.Items, 3)

	assert.True(t, res.Items[0].Quantity.Valid)
	assert.True(t, res.Items[0].Quantity.Decimal.IsZero())
	assert.Equal(t, "3000", res.Items[0].UnitPrice.Decimal.String())

	assert.Equal(t, "1.5", res.Items[1].Quantity.Decimal.String())
	assert.False(t, res.Items[1].UnitPrice.Valid)

	assert.False(t, res.Items[2].Quantity.Valid)
	assert.True(t, res.Items[2].UnitPrice.Decimal.IsNegative())
}

func TestParseReply_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", "   "},
		{"no array", "Maaf, saya tidak menemukan penjualan."},
		{"object instead of array", `{"barang":"Aqua","jumlah":2,"harga":5000}`},
		{"unterminated array", `Here: [{"barang":"Aqua"`},
		{"array of scalars", `[1, 2, 3]`},
		{"broken json", `[{"barang": Aqua}]`},
		{"bad price", `[{"barang":"Aqua","jumlah":2,"harga":"Rp 5.000"}]`},
		{"brackets around prose", `[catatan] lalu [{"barang":"Aqua","jumlah":2,"harga":5000}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseReply(tt.content)
			require.False(t, res.Ok())
			assert.ErrorIs(t, res.Err, ErrMalformedResponse)
			assert.Nil(t, res.Items)
		})
	}
}
