package audio

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type speechRequest struct {
	model    string
	format   string
	language string
	filename string
	audio    string
}

func newSpeechServer(t *testing.T, status int, reply map[string]interface{}) (*httptest.Server, *speechRequest) {
	t.Helper()

	got := &speechRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		got.model = r.FormValue("model")
		got.format = r.FormValue("response_format")
		got.language = r.FormValue("language")

		if file, header, err := r.FormFile("file"); assert.NoError(t, err) {
			data, _ := io.ReadAll(file)
			file.Close()
			got.filename = header.Filename
			got.audio = string(data)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = jsoniter.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)

	return srv, got
}

func TestTranscribe_VerboseJSON(t *testing.T) {
	srv, got := newSpeechServer(t, http.StatusOK, map[string]interface{}{
		"task":     "transcribe",
		"language": "english",
		"duration": 1.5,
		"text":     "  add a task to Launch  ",
	})

	svc := NewTranscriptionService(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	result, err := svc.Transcribe(context.Background(), "clip.wav", strings.NewReader("RIFF-audio"))
	require.NoError(t, err)

	assert.Equal(t, "add a task to Launch", result.Text)
	assert.Equal(t, "en", result.LanguageCode)
	assert.Zero(t, result.LanguageProbability)

	assert.Equal(t, "whisper-1", got.model)
	assert.Equal(t, "verbose_json", got.format)
	assert.Empty(t, got.language)
	assert.Equal(t, "clip.wav", got.filename)
	assert.Equal(t, "RIFF-audio", got.audio)
}

func TestTranscribe_PinnedLanguage(t *testing.T) {
	srv, got := newSpeechServer(t, http.StatusOK, map[string]interface{}{
		"language": "spanish",
		"text":     "hola",
	})

	svc := NewTranscriptionService(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "large-v3", Language: "English"})
	result, err := svc.Transcribe(context.Background(), "clip.webm", strings.NewReader("webm"))
	require.NoError(t, err)

	assert.Equal(t, "large-v3", got.model)
	assert.Equal(t, "English", got.language)
	assert.Equal(t, "en", result.LanguageCode)
	assert.Equal(t, 1.0, result.LanguageProbability)
}

func TestTranscribe_EmptyText(t *testing.T) {
	srv, _ := newSpeechServer(t, http.StatusOK, map[string]interface{}{"text": "   "})

	svc := NewTranscriptionService(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := svc.Transcribe(context.Background(), "clip.wav", strings.NewReader("silence"))
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestTranscribe_APIError(t *testing.T) {
	srv, _ := newSpeechServer(t, http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{"message": "model overloaded", "type": "server_error"},
	})

	svc := NewTranscriptionService(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := svc.Transcribe(context.Background(), "clip.wav", strings.NewReader("audio"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyTranscript)
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "en", NormalizeLanguage("English"))
	assert.Equal(t, "id", NormalizeLanguage(" indonesian "))
	assert.Equal(t, "sw", NormalizeLanguage("SW"))
	assert.Equal(t, "", NormalizeLanguage(""))
}
