package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mtgvault/mtgvault/internal/errs"
)

func TestFetcher_Fetch_StagesAtomically(t *testing.T) {
	payload := []byte(`[{"name":"Lightning Bolt","set":"lea"}]`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(srv.URL, dir, "", zap.NewNop())

	ds, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, stagedName), ds.Path)
	require.Equal(t, int64(len(payload)), ds.Size)

	sum := sha256.Sum256(payload)
	require.Equal(t, hex.EncodeToString(sum[:]), ds.SHA256)

	got, err := os.ReadFile(ds.Path)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	// No temp files left behind.
	requireOnlyStagedFile(t, dir)
}

func TestFetcher_Fetch_TruncatedPayloadLeavesNoStagedFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("short"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(srv.URL, dir, "", zap.NewNop())

	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	_, statErr := os.Stat(f.StagedPath())
	require.True(t, os.IsNotExist(statErr))
	requireNoTempFiles(t, dir)
}

func TestFetcher_Fetch_DigestMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, t.TempDir(), "deadbeef", zap.NewNop())
	_, err := f.Fetch(context.Background())
	require.ErrorIs(t, err, errs.ErrCorruptInput)
}

func TestFetcher_Fetch_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, t.TempDir(), "", zap.NewNop())
	_, err := f.Fetch(context.Background())
	require.ErrorIs(t, err, errs.ErrTransient)
}

func TestFetcher_Fetch_NotFoundIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, t.TempDir(), "", zap.NewNop())
	_, err := f.Fetch(context.Background())
	require.ErrorIs(t, err, errs.ErrCorruptInput)
}

func TestFetcher_Fetch_OverwritesPreviousStagedFile(t *testing.T) {
	body := []byte("first")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(srv.URL, dir, "", zap.NewNop())

	_, err := f.Fetch(context.Background())
	require.NoError(t, err)

	body = []byte("second, longer payload")
	ds, err := f.Fetch(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(ds.Path)
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func requireOnlyStagedFile(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, stagedName, entries[0].Name())
}

func requireNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
