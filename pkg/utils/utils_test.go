package utils

import (
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULIDFromTimestamp_MonotonicWithinMillisecond(t *testing.T) {
	u := New(0)
	now := time.Now()

	first, err := u.NewULIDFromTimestamp(now)
	require.NoError(t, err)
	second, err := u.NewULIDFromTimestamp(now)
	require.NoError(t, err)

	assert.Less(t, first, second)

	parsed, err := ulid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(now), parsed.Time())
}

func TestValidateAudioFile(t *testing.T) {
	u := New(1024)

	header := func(name, contentType string, size int64) *multipart.FileHeader {
		h := textproto.MIMEHeader{}
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		return &multipart.FileHeader{Filename: name, Header: h, Size: size}
	}

	assert.NoError(t, u.ValidateAudioFile(header("clip.bin", "audio/wav", 10)))
	assert.NoError(t, u.ValidateAudioFile(header("clip.m4a", "application/octet-stream", 10)))
	assert.ErrorIs(t, u.ValidateAudioFile(header("notes.txt", "text/plain", 10)), ErrUnsupportedFile)
	assert.ErrorIs(t, u.ValidateAudioFile(header("clip.wav", "audio/wav", 2048)), ErrFileTooLarge)
	assert.ErrorIs(t, u.ValidateAudioFile(nil), ErrNoFile)
}
