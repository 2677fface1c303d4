package voiceHandler

import (
	"callstack/internal/api/voice"
	contextPkg "callstack/pkg/context"
	"callstack/pkg/handlerUtil"
	jwtPkg "callstack/pkg/jwt"
	"callstack/pkg/log"
	"callstack/pkg/utils"
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

var audioFormFields = []string{"file", "audio"}

func (h *VoiceHandler) Transcribe(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.audioTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing transcribe request")

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	file, err := h.formAudio(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "transcribe")
	}

	data, err := h.utils.ReadFormFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, uploadError(err), ctx.Path(), "transcribe")
	}

	resp, err := h.voiceService.ProcessAudio(c, userData, voice.AudioInput{
		Filename:      file.Filename,
		ContentType:   file.Header.Get(fiber.HeaderContentType),
		Data:          data,
		CallSessionID: ctx.FormValue("call_session_id"),
	})
	if err != nil {
		return h.pipelineError(ctx, errHandler, requestID, err, "transcribe")
	}

	// The command and its audit row are committed at this point, so a deadline
	// that expired afterwards does not turn the reply into a timeout.
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
}

func (h *VoiceHandler) ProcessText(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.textTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req voice.TextCommandRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	resp, err := h.voiceService.ProcessText(c, userData, req.Transcript, req.CallSessionID)
	if err != nil {
		return h.pipelineError(ctx, errHandler, requestID, err, "process_text")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
}

func (h *VoiceHandler) formAudio(ctx *fiber.Ctx) (*multipart.FileHeader, error) {
	var file *multipart.FileHeader
	for _, field := range audioFormFields {
		if f, err := ctx.FormFile(field); err == nil {
			file = f
			break
		}
	}
	if file == nil {
		return nil, voice.ErrMissingAudioFile
	}

	if err := h.utils.ValidateAudioFile(file); err != nil {
		return nil, uploadError(err)
	}

	return file, nil
}

// pipelineError keeps the status field in failure bodies for the failures
// clients branch on. Everything else goes through the shared error handler.
func (h *VoiceHandler) pipelineError(ctx *fiber.Ctx, errHandler *handlerUtil.ErrorHandler, requestID string, err error, operation string) error {
	var code int
	switch {
	case errors.Is(err, voice.ErrTranscriptionFailed):
		code = fiber.StatusBadGateway
	case errors.Is(err, voice.ErrStorage):
		code = fiber.StatusInternalServerError
	default:
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), operation)
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"operation":  operation,
		"error":      err.Error(),
	}).Error("Voice pipeline failed")

	return ctx.Status(code).JSON(voice.ErrorResponse{
		Status:  voice.StatusError,
		Message: err.Error(),
	})
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, utils.ErrNoFile):
		return voice.ErrMissingAudioFile
	case errors.Is(err, utils.ErrFileTooLarge):
		return voice.ErrAudioFileTooLarge
	case errors.Is(err, utils.ErrUnsupportedFile):
		return voice.ErrInvalidAudioFile
	}
	return err
}
