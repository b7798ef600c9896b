package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataOrder(t *testing.T) {
	t.Parallel()

	md := NewMetadata()
	md.Set("b", "2")
	md.Set("a", "1")
	md.Set("b", "3") // update keeps position
	require.Equal(t, []string{"b", "a"}, md.Keys())

	v, ok := md.Get("b")
	require.True(t, ok)
	require.Equal(t, "3", v)

	_, ok = md.Get("missing")
	require.False(t, ok)
}

func TestMetadataSetLast(t *testing.T) {
	t.Parallel()

	md := NewMetadata()
	md.Set("Артикул", "из блока")
	md.Set("Цвет", "Красный")
	md.SetLast("Артикул", "12345")

	require.Equal(t, []string{"Цвет", "Артикул"}, md.Keys())
	v, _ := md.Get("Артикул")
	require.Equal(t, "12345", v)
	require.Equal(t, 2, md.Len())
}

func TestMetadataMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	md := NewMetadata()
	md.Set("Крепость", "40%")
	md.Set("Объем", "0.5л")
	md.SetLast("Код товара", "u-1")

	data, err := json.Marshal(md)
	require.NoError(t, err)
	require.Equal(t, `{"Крепость":"40%","Объем":"0.5л","Код товара":"u-1"}`, string(data))

	decoded := &Metadata{}
	require.NoError(t, json.Unmarshal(data, decoded))
	require.Equal(t, md.Keys(), decoded.Keys())
}
