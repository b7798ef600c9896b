package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCities(t *testing.T) {
	t.Parallel()

	t.Run("bare array", func(t *testing.T) {
		path := writeFile(t, "cities.json", `[{"name":"Краснодар","uuid":"u-1"}]`)
		cities, err := LoadCities(path)
		require.NoError(t, err)
		require.Equal(t, []City{{Name: "Краснодар", UUID: "u-1"}}, cities)
	})

	t.Run("results envelope", func(t *testing.T) {
		path := writeFile(t, "cities.json", `{"results":[{"name":"Сочи","uuid":"u-2"}]}`)
		cities, err := LoadCities(path)
		require.NoError(t, err)
		require.Len(t, cities, 1)
		require.Equal(t, "Сочи", cities[0].Name)
	})

	t.Run("unrecognized shape", func(t *testing.T) {
		path := writeFile(t, "cities.json", `{"items":[]}`)
		_, err := LoadCities(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCities(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}

func TestPickCityUUID(t *testing.T) {
	t.Parallel()

	cities := []City{
		{Name: " Краснодар ", UUID: "u-krd"},
		{Name: "Сочи", UUID: "u-sochi"},
		{Name: "Анапа", UUID: ""},
	}

	uuid, ok := PickCityUUID("краснодар", cities)
	require.True(t, ok)
	require.Equal(t, "u-krd", uuid)

	uuid, ok = PickCityUUID("СОЧИ", cities)
	require.True(t, ok)
	require.Equal(t, "u-sochi", uuid)

	// Entry without a uuid cannot match.
	_, ok = PickCityUUID("Анапа", cities)
	require.False(t, ok)

	_, ok = PickCityUUID("Москва", cities)
	require.False(t, ok)

	_, ok = PickCityUUID("", cities)
	require.False(t, ok)
}

func TestLoadLines(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "list.txt", "# comment\n\nhttps://alkoteka.com/catalog/vino\n  https://alkoteka.com/catalog/viski \n#tail\n")
	lines, err := LoadLines(path)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://alkoteka.com/catalog/vino",
		"https://alkoteka.com/catalog/viski",
	}, lines)
}

func TestLoadCategories(t *testing.T) {
	t.Parallel()

	t.Run("empty file is an error", func(t *testing.T) {
		path := writeFile(t, "categories.txt", "# only comments\n\n")
		_, err := LoadCategories(path)
		require.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadCategories(filepath.Join(t.TempDir(), "categories.txt"))
		require.Error(t, err)
	})

	t.Run("urls returned in order", func(t *testing.T) {
		path := writeFile(t, "categories.txt", "https://alkoteka.com/catalog/vino\nhttps://alkoteka.com/catalog/pivo\n")
		cats, err := LoadCategories(path)
		require.NoError(t, err)
		require.Len(t, cats, 2)
	})
}
