package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0}, 32)...)
	webpBytes = append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), bytes.Repeat([]byte{0}, 32)...)
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		max     int64
		ctype   string
		ext     string
		wantErr error
	}{
		{"png", pngBytes, 0, "image/png", ".png", nil},
		{"jpeg", jpegBytes, 0, "image/jpeg", ".jpg", nil},
		{"webp", webpBytes, 0, "image/webp", ".webp", nil},
		{"empty", nil, 0, "", "", ErrEmptyImage},
		{"too large", pngBytes, 8, "", "", ErrImageTooLarge},
		{"text", []byte("hello, this is not an image"), 0, "", "", ErrUnsupportedImageType},
		{"gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00"), 0, "", "", ErrUnsupportedImageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctype, ext, err := Validate(tt.data, tt.max)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ctype, ctype)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	key, ok := keyFromURL("/images", "/images/dishes/a.png")
	assert.True(t, ok)
	assert.Equal(t, "dishes/a.png", key)

	key, ok = keyFromURL("/images", "/images/../../etc/passwd")
	assert.True(t, ok)
	assert.Equal(t, "etc/passwd", key)

	_, ok = keyFromURL("/images", "https://cdn.example.com/dishes/a.png")
	assert.False(t, ok)
	_, ok = keyFromURL("/images", "")
	assert.False(t, ok)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStore(dir, "/images/", 0, zap.NewNop())

	url, err := s.Store(ctx, DirRestaurantLogos, pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/images/restaurants/logos/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/images/")))
	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// deleting twice or a foreign url is a no-op
	assert.NoError(t, s.Delete(ctx, url))
	assert.NoError(t, s.Delete(ctx, "https://elsewhere.test/x.png"))

	_, err = s.Store(ctx, DirDishes, []byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedImageType)
	_, err = s.Store(ctx, "", pngBytes)
	assert.Error(t, err)
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{}
	s := newS3Store(client, "tajeats", "https://cdn.tajeats.test/", 0, zap.NewNop())

	url, err := s.Store(ctx, DirDishes, jpegBytes)
	require.NoError(t, err)
	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, "tajeats", *put.Bucket)
	assert.Equal(t, "image/jpeg", *put.ContentType)
	assert.True(t, strings.HasPrefix(*put.Key, "dishes/"))
	assert.Equal(t, "https://cdn.tajeats.test/"+*put.Key, url)

	require.NoError(t, s.Delete(ctx, url))
	require.Len(t, client.deletes, 1)
	assert.Equal(t, *put.Key, *client.deletes[0].Key)

	require.NoError(t, s.Delete(ctx, "/images/dishes/old.png"))
	assert.Len(t, client.deletes, 1)

	client.err = errors.New("unavailable")
	_, err = s.Store(ctx, DirDishes, jpegBytes)
	assert.Error(t, err)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{}, zap.NewNop())
	assert.Error(t, err)

	s, err := NewS3Store(context.Background(), S3Config{
		Bucket: "b", Endpoint: "http://localhost:9000", AccessKey: "k", SecretKey: "s", UsePathStyle: true,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/b", s.publicURL)
}
