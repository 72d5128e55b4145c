package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseChecksumByFilename(t *testing.T) {
	t.Parallel()

	content := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  foo.tar.gz\n" +
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb  checksums.txt\n")

	parsed, err := ParseChecksum(content, "foo.tar.gz")
	require.NoError(t, err)
	require.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", parsed)
}

func TestVerifyFileChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "payload.bin")
	payload := []byte("voxworker")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	sum := sha256.Sum256(payload)
	require.NoError(t, VerifyFileChecksum(path, hex.EncodeToString(sum[:])))
	require.Error(t, VerifyFileChecksum(path, "deadbeef"))
}

func TestDownloadFileWithChecksumURL(t *testing.T) {
	t.Parallel()

	payload := []byte("hello-world")
	sum := sha256.Sum256(payload)
	sumHex := hex.EncodeToString(sum[:])

	destination := filepath.Join(t.TempDir(), "artifact.tar.gz")
	checksumBody := fmt.Sprintf("%s  %s\n", sumHex, filepath.Base(destination))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/artifact":
			_, _ = w.Write(payload)
		case "/checksums.txt":
			_, _ = w.Write([]byte(checksumBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	err := DownloadFile(context.Background(), Options{
		URL:         server.URL + "/artifact",
		Destination: destination,
		ChecksumURL: server.URL + "/checksums.txt",
		NoProgress:  true,
		Retries:     1,
	})
	require.NoError(t, err)

	onDisk, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, payload, onDisk)
}

func TestResolveExpectedChecksum(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  model.bin\n"))
	}))
	defer server.Close()

	checksum, err := ResolveExpectedChecksum(context.Background(), server.URL, "model.bin", nil)
	require.NoError(t, err)
	require.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", checksum)
}

func TestDownloadFileDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var agent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		agent.Store(r.UserAgent())
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "ggml-base.bin")
	err := DownloadFile(context.Background(), Options{
		URL:         server.URL + "/missing",
		Destination: destination,
		NoProgress:  true,
		Retries:     3,
		RetryDelay:  time.Millisecond,
	})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Code)
	require.Equal(t, int32(1), hits.Load())
	require.Equal(t, userAgent, agent.Load())
	require.NoFileExists(t, destination)
}

func TestDownloadFileRetriesServerErrors(t *testing.T) {
	t.Parallel()

	payload := []byte("model-bytes")
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "ggml-base.bin")
	err := DownloadFile(context.Background(), Options{
		URL:         server.URL,
		Destination: destination,
		NoProgress:  true,
		Retries:     3,
		RetryDelay:  time.Millisecond,
	})
	require.NoError(t, err)
	require.Equal(t, int32(3), hits.Load())

	onDisk, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, payload, onDisk)

	entries, err := os.ReadDir(filepath.Dir(destination))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no partial files are left behind")
}

func TestDownloadFileChecksumMismatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "ggml-base.bin")
	err := DownloadFile(context.Background(), Options{
		URL:            server.URL,
		Destination:    destination,
		ExpectedSHA256: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		NoProgress:     true,
		Retries:        2,
		RetryDelay:     time.Millisecond,
	})
	require.ErrorIs(t, err, ErrChecksumMismatch)
	require.NoFileExists(t, destination)
}

func TestDownloadFileStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := DownloadFile(ctx, Options{
		URL:         server.URL,
		Destination: filepath.Join(t.TempDir(), "ggml-base.bin"),
		NoProgress:  true,
		Retries:     5,
		RetryDelay:  time.Minute,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatusErrorTemporary(t *testing.T) {
	t.Parallel()

	require.False(t, (&StatusError{Code: http.StatusNotFound}).Temporary())
	require.False(t, (&StatusError{Code: http.StatusForbidden}).Temporary())
	require.True(t, (&StatusError{Code: http.StatusTooManyRequests}).Temporary())
	require.True(t, (&StatusError{Code: http.StatusRequestTimeout}).Temporary())
	require.True(t, (&StatusError{Code: http.StatusInternalServerError}).Temporary())
}
