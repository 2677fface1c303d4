package voiceHandler

import (
	"callstack/internal/api/voice"
	"callstack/internal/entity"
	"callstack/internal/middleware"
	contextPkg "callstack/pkg/context"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
)

const (
	wsReadTimeout  = 5 * time.Minute
	wsWriteTimeout = 10 * time.Second
	wsClipTimeout  = 60 * time.Second
)

// handleWebSocket treats every binary frame as one audio clip and every text
// frame as a TextCommandRequest. Each frame gets exactly one JSON reply.
func (h *VoiceHandler) handleWebSocket(c *websocket.Conn) {
	user, ok := c.Locals("user").(entity.UserLoginData)
	if !ok {
		_ = c.WriteJSON(voice.ErrorResponse{Status: voice.StatusError, Message: "Unauthorized"})
		return
	}

	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	sessionID := c.Query("call_session_id")
	filename := "clip." + c.Query("format", "webm")

	h.log.WithField("user_id", user.ID).Info("Voice WebSocket client connected")
	defer h.log.WithField("user_id", user.ID).Info("Voice WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		return c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("Voice WebSocket error: %v", err)
			}
			break
		}

		ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), wsClipTimeout)

		var reply interface{}
		switch messageType {
		case websocket.BinaryMessage:
			reply = h.wsReply(h.voiceService.ProcessAudio(ctx, user, voice.AudioInput{
				Filename:      filename,
				Data:          message,
				CallSessionID: sessionID,
			}))
		case websocket.TextMessage:
			var req voice.TextCommandRequest
			if err := jsoniter.Unmarshal(message, &req); err != nil {
				reply = voice.ErrorResponse{Status: voice.StatusError, Message: "invalid text command"}
				break
			}
			if req.CallSessionID == "" {
				req.CallSessionID = sessionID
			}
			reply = h.wsReply(h.voiceService.ProcessText(ctx, user, req.Transcript, req.CallSessionID))
		default:
			cancel()
			continue
		}
		cancel()

		if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			break
		}
		if err := c.WriteJSON(reply); err != nil {
			h.log.Errorf("Error writing voice reply: %v", err)
			break
		}
	}
}

func (h *VoiceHandler) wsReply(resp voice.TranscribeResponse, err error) interface{} {
	if err == nil {
		return resp
	}

	h.log.WithField("error", err.Error()).Warn("Voice WebSocket command failed")

	msg := err.Error()
	var target interface{ Message() string }
	if errors.As(err, &target) {
		msg = target.Message()
	}
	return voice.ErrorResponse{Status: voice.StatusError, Message: msg}
}
