package voiceHandler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"callstack/internal/api/voice"
	"callstack/internal/entity"
	"callstack/internal/middleware"
	"callstack/pkg/identity"
	"callstack/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

// slowVoiceService outlives the request deadline and then reports success,
// like a pipeline that committed just as the deadline passed.
type slowVoiceService struct{}

func (slowVoiceService) ProcessAudio(ctx context.Context, _ entity.UserLoginData, _ voice.AudioInput) (voice.TranscribeResponse, error) {
	<-ctx.Done()
	return voice.TranscribeResponse{Status: voice.StatusSuccess, Transcript: "from audio", LoggedTaskID: "task-1"}, nil
}

func (slowVoiceService) ProcessText(ctx context.Context, _ entity.UserLoginData, transcript, _ string) (voice.TranscribeResponse, error) {
	<-ctx.Done()
	return voice.TranscribeResponse{Status: voice.StatusSuccess, Transcript: transcript, LoggedTaskID: "task-2"}, nil
}

func (slowVoiceService) ProcessTranscript(_ context.Context, _, transcript string) (voice.TranscribeResponse, error) {
	return voice.TranscribeResponse{Status: voice.StatusSuccess, Transcript: transcript}, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	mw := middleware.New(log, identity.NewDevelopment("dev-user", "", ""), 0, 0)
	h := New(log, validator.New(), mw, slowVoiceService{}, utils.New(1<<20))
	h.audioTimeout = 20 * time.Millisecond
	h.textTimeout = 20 * time.Millisecond

	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())
	h.Start(app.Group("/api/v1"))

	return app
}

func decode(t *testing.T, resp *http.Response) voice.TranscribeResponse {
	t.Helper()
	defer resp.Body.Close()

	var body voice.TranscribeResponse
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestProcessText_CommittedResultSurvivesDeadline(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/text", strings.NewReader(`{"transcript":"status please"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, voice.StatusSuccess, body.Status)
	assert.Equal(t, "task-2", body.LoggedTaskID)
}

func TestTranscribe_CommittedResultSurvivesDeadline(t *testing.T) {
	app := newTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "clip.wav")
	require.NoError(t, err)
	_, err = part.Write([]byte("RIFF....WAVEfmt "))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/transcribe", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "from audio", body.Transcript)
	assert.Equal(t, "task-1", body.LoggedTaskID)
}
