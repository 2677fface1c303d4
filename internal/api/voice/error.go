package voice

import (
	"callstack/pkg/response"
	"net/http"
)

var (
	ErrMissingAudioFile    = response.NewError(http.StatusBadRequest, "audio file is required")
	ErrInvalidAudioFile    = response.NewError(http.StatusBadRequest, "unsupported audio file")
	ErrAudioFileTooLarge   = response.NewError(http.StatusRequestEntityTooLarge, "audio file too large")
	ErrEmptyTranscript     = response.NewError(http.StatusBadRequest, "transcript is empty")
	ErrTranscriptionFailed = response.NewError(http.StatusBadGateway, "transcription failed")
	ErrStorage             = response.NewError(http.StatusInternalServerError, "failed to record voice command")
)
