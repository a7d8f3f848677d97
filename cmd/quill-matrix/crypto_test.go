// ABOUTME: Tests for crypto DB naming and device-change detection
// ABOUTME: Builds a minimal crypto_account table with the sqlite3 driver

package main

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountSlug(t *testing.T) {
	assert.Equal(t, "quill_example.org", accountSlug("@quill:example.org"))
	assert.Equal(t, "a-b_c_host", accountSlug("@a-b_c:host"))
	assert.Equal(t, "weird", accountSlug("@we/ird"))
}

func TestCryptoDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "crypto-quill_example.org.db"), cryptoDBPath("/data", "@quill:example.org"))
}

func TestStoreKey(t *testing.T) {
	a := storeKey("@a:example.org")
	assert.Len(t, a, 32)
	assert.Equal(t, a, storeKey("@a:example.org"))
	assert.NotEqual(t, a, storeKey("@b:example.org"))
}

func writeCryptoDB(t *testing.T, path, deviceID string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec("CREATE TABLE crypto_account (device_id TEXT)")
	require.NoError(t, err)
	if deviceID != "" {
		_, err = db.Exec("INSERT INTO crypto_account (device_id) VALUES (?)", deviceID)
		require.NoError(t, err)
	}
}

func TestStoredDeviceID(t *testing.T) {
	dir := t.TempDir()

	got, err := storedDeviceID(filepath.Join(dir, "missing.db"))
	require.NoError(t, err)
	assert.Empty(t, got)

	empty := filepath.Join(dir, "empty.db")
	writeCryptoDB(t, empty, "")
	got, err = storedDeviceID(empty)
	require.NoError(t, err)
	assert.Empty(t, got)

	full := filepath.Join(dir, "full.db")
	writeCryptoDB(t, full, "DEVICEA")
	got, err = storedDeviceID(full)
	require.NoError(t, err)
	assert.Equal(t, "DEVICEA", got)
}

func TestResetOnDeviceChange(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	path := filepath.Join(dir, "crypto.db")
	writeCryptoDB(t, path, "DEVICEA")

	require.NoError(t, resetOnDeviceChange(path, "DEVICEA", logger))
	_, err := os.Stat(path)
	assert.NoError(t, err, "same device keeps the database")

	require.NoError(t, resetOnDeviceChange(path, "DEVICEB", logger))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "new device removes the database")
}
