package voiceService

import (
	"bytes"
	callsession "callstack/internal/api/call_session"
	"callstack/internal/api/voice"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (v *voiceService) ProcessAudio(ctx context.Context, user entity.UserLoginData, input voice.AudioInput) (voice.TranscribeResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if len(input.Data) == 0 {
		return voice.TranscribeResponse{}, voice.ErrMissingAudioFile
	}

	if err := v.prepare(ctx, user, input.CallSessionID); err != nil {
		return voice.TranscribeResponse{}, err
	}

	if v.transcriber == nil {
		return voice.TranscribeResponse{}, voice.ErrTranscriptionFailed
	}

	location := v.archive(ctx, user.ID, input)

	transcription, err := v.transcriber.Transcribe(ctx, input.Filename, bytes.NewReader(input.Data))
	if err != nil {
		v.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
			"error":      err.Error(),
		}).Error("Transcription failed")
		return voice.TranscribeResponse{}, voice.ErrTranscriptionFailed
	}

	transcript := strings.TrimSpace(transcription.Text)
	if transcript == "" {
		return voice.TranscribeResponse{}, voice.ErrTranscriptionFailed
	}

	v.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"language":   transcription.LanguageCode,
		"chars":      len(transcript),
	}).Debug("Audio transcribed")

	resp, err := v.ProcessTranscript(ctx, user.ID, transcript)
	if err != nil {
		return voice.TranscribeResponse{}, err
	}
	resp.Language = transcription.LanguageCode
	resp.AudioLocation = location

	v.appendToSession(ctx, user.ID, input.CallSessionID, transcript, resp.LoggedTaskID)

	return resp, nil
}

func (v *voiceService) ProcessText(ctx context.Context, user entity.UserLoginData, transcript, callSessionID string) (voice.TranscribeResponse, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return voice.TranscribeResponse{}, voice.ErrEmptyTranscript
	}

	if err := v.prepare(ctx, user, callSessionID); err != nil {
		return voice.TranscribeResponse{}, err
	}

	resp, err := v.ProcessTranscript(ctx, user.ID, transcript)
	if err != nil {
		return voice.TranscribeResponse{}, err
	}

	v.appendToSession(ctx, user.ID, callSessionID, transcript, resp.LoggedTaskID)

	return resp, nil
}

// ProcessTranscript is the command pipeline: load context, resolve intent,
// dispatch, reload context and write the audit task. It always writes exactly
// one audit task or returns a storage error.
func (v *voiceService) ProcessTranscript(ctx context.Context, userID, transcript string) (voice.TranscribeResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	projects, err := v.loadContext(ctx, userID)
	if err != nil {
		return voice.TranscribeResponse{}, voice.ErrStorage
	}

	intent := v.resolveIntent(ctx, transcript, projects)
	if intent.Failure != nil {
		v.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"reason":     intent.Failure.Reason,
			"error":      intent.Failure.Error(),
		}).Warn("Intent resolution degraded")
	}

	outcome, err := v.dispatch(ctx, userID, transcript, intent.Record)
	if err != nil {
		v.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"intent":     intent.Record.Type,
			"error":      err.Error(),
		}).Error("Failed to execute voice command")
		return voice.TranscribeResponse{}, voice.ErrStorage
	}

	// Refresh so that a project created by this command is the audit target.
	known, err := v.loadContext(ctx, userID)
	if err != nil {
		return voice.TranscribeResponse{}, voice.ErrStorage
	}

	taskID, err := v.recordEvent(ctx, auditEvent{
		UserID:        userID,
		ProjectName:   intent.Record.Project(),
		KnownProjects: known,
		Description:   auditDescription(transcript),
		RawTranscript: transcript,
		IntentType:    intent.Record.Type,
		Confidence:    intent.Record.Confidence,
		OutputSummary: outcome.Result,
		VoiceCommand:  transcript,
	})
	if err != nil {
		v.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("Failed to record voice command")
		return voice.TranscribeResponse{}, voice.ErrStorage
	}

	result := outcome.Result

	return voice.TranscribeResponse{
		Status:               voice.StatusSuccess,
		Transcript:           transcript,
		Intent:               intent.Record,
		ActionResult:         &result,
		ContextProjectsCount: len(projects),
		Created: voice.CreatedRefs{
			ProjectID: outcome.ProjectID,
			TaskID:    outcome.TaskID,
		},
		LoggedTaskID: taskID,
	}, nil
}

// prepare registers the caller and checks the call session before any
// expensive work happens.
func (v *voiceService) prepare(ctx context.Context, user entity.UserLoginData, callSessionID string) error {
	if _, err := v.userService.UpsertUser(ctx, user.ID, user.Email, user.Phone); err != nil {
		return err
	}

	if callSessionID == "" || v.sessionService == nil {
		return nil
	}

	session, err := v.sessionService.GetUserSession(ctx, user.ID, callSessionID)
	if err != nil {
		return err
	}
	if session.Ended() {
		return callsession.ErrSessionEnded
	}

	return nil
}

func (v *voiceService) appendToSession(ctx context.Context, userID, callSessionID, transcript, taskID string) {
	if callSessionID == "" || v.sessionService == nil {
		return
	}

	if _, err := v.sessionService.AppendCommand(ctx, userID, callSessionID, transcript, taskID); err != nil {
		v.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": callSessionID,
			"error":      err.Error(),
		}).Warn("Failed to append command to call session")
	}
}

// archive uploads the raw clip when storage is configured. Failures are
// logged and do not fail the request.
func (v *voiceService) archive(ctx context.Context, userID string, input voice.AudioInput) string {
	if !v.cfg.ArchiveAudio || v.storage == nil {
		return ""
	}

	id, err := v.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return ""
	}

	ext := strings.ToLower(filepath.Ext(input.Filename))
	if ext == "" {
		ext = ".bin"
	}
	key := fmt.Sprintf("audio/%s/%s%s", userID, id, ext)

	location, err := v.storage.UploadAudio(ctx, key, bytes.NewReader(input.Data), input.ContentType)
	if err != nil {
		v.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"key":        key,
			"error":      err.Error(),
		}).Warn("Failed to archive audio")
		return ""
	}

	return location
}

func auditDescription(transcript string) string {
	return "Voice command: " + transcript
}
