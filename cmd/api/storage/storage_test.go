package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRef(t *testing.T) {
	ref := newRef(12, "image/png")

	assert.True(t, strings.HasPrefix(ref, "covers/12/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))
	assert.NoError(t, validRef(ref))
	assert.NotEqual(t, ref, newRef(12, "image/png"))
}

func TestValidRef(t *testing.T) {
	tests := []struct {
		ref   string
		valid bool
	}{
		{"covers/1/abc.png", true},
		{"covers/../etc/passwd", false},
		{"/etc/passwd", false},
		{"other/1/abc.png", false},
		{"covers//1/abc.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			err := validRef(tt.ref)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRef)
			}
		})
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	content := "fake image bytes"
	ref, err := s.Store(ctx, 3, strings.NewReader(content), int64(len(content)), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "covers/3/"))

	rc, err := s.Read(ctx, ref)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	_, err = s.Read(ctx, "covers/3/missing.png")
	assert.Error(t, err)

	_, err = s.Read(ctx, "../outside")
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestNewMinIOStoreRequiresConfig(t *testing.T) {
	_, err := NewMinIOStore(MinIOConfig{})
	assert.Error(t, err)

	_, err = NewMinIOStore(MinIOConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	s, err := NewMinIOStore(MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "book-network", s.bucket)
}
