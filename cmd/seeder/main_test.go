package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--reset", "-f", "catalog.yaml", "--backend", "crdb"})
	require.NoError(t, err)
	assert.True(t, opts.reset)
	assert.Equal(t, "catalog.yaml", opts.file)
	assert.Equal(t, "crdb", opts.backend)

	_, err = parseFlags([]string{"extra"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--bogus"})
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	flights, err := catalog(options{})
	require.NoError(t, err)
	assert.Len(t, flights, 4)

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("flights:\n  - {flight_id: QP-505, airline: Akasa Air, departure_city: Kolkata, arrival_city: Mumbai, base_price: 4200}\n"), 0o600))
	flights, err = catalog(options{file: path})
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "QP-505", flights[0].ID)

	_, err = catalog(options{file: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
