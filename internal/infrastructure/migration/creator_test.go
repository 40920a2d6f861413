package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add persons table", "add_persons_table"},
		{"Add-Main-Address-Index", "add_main_address_index"},
		{"ADD__ADDRESS__CITY", "add_address_city"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "special_chars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create persons")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_persons.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_persons.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "Create Addresses")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- create_addresses")
	down, err := os.ReadFile(second.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback of create_addresses")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_add_city_index.up.sql",
		"000002_create_addresses.up.sql",
		"000002_create_addresses.down.sql",
		"000001_create_persons.up.sql",
		"000001_create_persons.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)

	require.Len(t, migrations, 3)
	assert.Equal(t, Migration{Version: 1, Name: "create_persons", HasDown: true}, migrations[0])
	assert.Equal(t, Migration{Version: 2, Name: "create_addresses", HasDown: true}, migrations[1])
	assert.Equal(t, Migration{Version: 10, Name: "add_city_index"}, migrations[2])
	assert.Equal(t, "000010_add_city_index", migrations[2].String())
}

func TestListMigrations_MissingDir(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestListMigrations_ShippedSchema(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)

	require.Len(t, migrations, 2)
	for _, m := range migrations {
		assert.True(t, m.HasDown, m.String())
	}
}
