package voiceService

import (
	callSessionService "callstack/internal/api/call_session/service"
	projectService "callstack/internal/api/project/service"
	userService "callstack/internal/api/user/service"
	"callstack/internal/api/voice"
	"callstack/internal/entity"
	"callstack/pkg/audio"
	"callstack/pkg/classifier"
	"callstack/pkg/s3"
	"callstack/pkg/utils"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const DefaultIntentTimeout = 15 * time.Second

// DefaultSystemPrompt instructs the model to answer with a single intent
// object and nothing else.
const DefaultSystemPrompt = `You are the "Brain" of a voice coding assistant. Map natural language to tools.
Output STRICT JSON only. No markdown, no conversational text.

Structure:
{
  "intent": "create_project" | "create_task" | "status_check" | "unknown",
  "project_name": <string | null>,
  "task_description": <string | null>,
  "parameters": <object>,
  "confidence": <number between 0 and 1>
}`

type IVoiceService interface {
	// ProcessAudio transcribes the clip and runs the command pipeline on the
	// transcript.
	ProcessAudio(ctx context.Context, user entity.UserLoginData, input voice.AudioInput) (voice.TranscribeResponse, error)
	// ProcessText runs the command pipeline on an already transcribed command.
	ProcessText(ctx context.Context, user entity.UserLoginData, transcript, callSessionID string) (voice.TranscribeResponse, error)
	ProcessTranscript(ctx context.Context, userID, transcript string) (voice.TranscribeResponse, error)
}

type Config struct {
	IntentTimeout time.Duration
	SystemPrompt  string
	ArchiveAudio  bool
}

type voiceService struct {
	log            *logrus.Logger
	userService    userService.IUserService
	projectService projectService.IProjectService
	sessionService callSessionService.ICallSessionService
	transcriber    audio.ITranscriber
	classifier     classifier.IClassifier
	storage        s3.ItfS3
	utils          utils.IUtils
	cfg            Config
}

// NewVoiceService wires the pipeline. storage may be nil, in which case clips
// are never archived.
func NewVoiceService(
	log *logrus.Logger,
	us userService.IUserService,
	ps projectService.IProjectService,
	cs callSessionService.ICallSessionService,
	transcriber audio.ITranscriber,
	cl classifier.IClassifier,
	storage s3.ItfS3,
	utils utils.IUtils,
	cfg Config,
) IVoiceService {
	if cfg.IntentTimeout <= 0 {
		cfg.IntentTimeout = DefaultIntentTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	return &voiceService{
		log:            log,
		userService:    us,
		projectService: ps,
		sessionService: cs,
		transcriber:    transcriber,
		classifier:     cl,
		storage:        storage,
		utils:          utils,
		cfg:            cfg,
	}
}
