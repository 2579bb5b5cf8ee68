package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-annotate/pkg/config"
)

func TestNewCOSStorage_Validation(t *testing.T) {
	t.Run("MissingBucket", func(t *testing.T) {
		storage, err := NewCOSStorage(&COSConfig{Region: "ap-guangzhou", SecretID: "id", SecretKey: "key"})
		assert.Nil(t, storage)
		assert.ErrorContains(t, err, "bucket and region are required")
	})

	t.Run("MissingRegion", func(t *testing.T) {
		storage, err := NewCOSStorage(&COSConfig{Bucket: "b", SecretID: "id", SecretKey: "key"})
		assert.Nil(t, storage)
		assert.ErrorContains(t, err, "bucket and region are required")
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		storage, err := NewCOSStorage(&COSConfig{Bucket: "b", Region: "ap-guangzhou"})
		assert.Nil(t, storage)
		assert.ErrorContains(t, err, "credentials are required")
	})
}

func TestCOSStorage_GetURL(t *testing.T) {
	storage, err := NewCOSStorage(&COSConfig{
		Bucket:    "my-bucket",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://my-bucket.cos.ap-guangzhou.myqcloud.com/profiles/perf.folded",
		storage.GetURL("profiles/perf.folded"))

	storage, err = NewCOSStorage(&COSConfig{
		Bucket:    "my-bucket",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
		Endpoint:  "http://127.0.0.1:9000/",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/perf.folded", storage.GetURL("perf.folded"))
}

// fakeCOS serves objects from memory.
type fakeCOS struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeCOS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.URL.Path[1:]
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeCOSStorage(t *testing.T) *COSStorage {
	t.Helper()
	srv := httptest.NewServer(&fakeCOS{objects: map[string][]byte{
		"profiles/perf.folded": []byte("main (a.c:1) 5\n"),
	}})
	t.Cleanup(srv.Close)

	storage, err := NewCOSStorage(&COSConfig{
		Bucket:    "test-bucket",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
		Endpoint:  srv.URL,
	})
	require.NoError(t, err)
	return storage
}

func TestCOSStorage_Download(t *testing.T) {
	storage := newFakeCOSStorage(t)

	rc, err := storage.Download(context.Background(), "profiles/perf.folded")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "main (a.c:1) 5\n", string(data))

	_, err = storage.Download(context.Background(), "profiles/missing.folded")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCOSStorage_UploadAndExists(t *testing.T) {
	storage := newFakeCOSStorage(t)
	ctx := context.Background()

	ok, err := storage.Exists(ctx, "reports/lines.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Upload(ctx, "reports/lines.json", bytes.NewReader([]byte(`{"entries":[]}`))))

	ok, err = storage.Exists(ctx, "reports/lines.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewStorage_COS(t *testing.T) {
	storage, err := NewStorage(&config.StorageConfig{
		Type:      "cos",
		Bucket:    "test-bucket",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
	})
	require.NoError(t, err)
	assert.IsType(t, &COSStorage{}, storage)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"NilConfig", nil, "storage config is nil"},
		{"InvalidStorageType", &config.StorageConfig{Type: "s3"}, "unsupported storage type"},
		{"COSMissingBucket", &config.StorageConfig{Type: "cos", Region: "r", SecretID: "i", SecretKey: "k"}, "COS bucket is required"},
		{"COSMissingRegion", &config.StorageConfig{Type: "cos", Bucket: "b", SecretID: "i", SecretKey: "k"}, "COS region is required"},
		{"COSMissingCredentials", &config.StorageConfig{Type: "cos", Bucket: "b", Region: "r"}, "COS credentials are required"},
		{"ValidCOSConfig", &config.StorageConfig{Type: "cos", Bucket: "b", Region: "r", SecretID: "i", SecretKey: "k"}, ""},
		{"LocalWithoutPath", &config.StorageConfig{Type: "local"}, ""},
		{"EmptyType", &config.StorageConfig{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
