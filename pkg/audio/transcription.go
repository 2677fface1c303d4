package audio

import (
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/net/context"
)

var ErrEmptyTranscript = errors.New("transcription returned no text")

type Transcription struct {
	Text                string  `json:"text"`
	LanguageCode        string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
}

type ITranscriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (Transcription, error)
}

type Config struct {
	APIKey string
	// BaseURL points at any OpenAI compatible speech server, e.g. a local
	// faster-whisper deployment.
	BaseURL  string
	Model    string
	Language string
}

type TranscriptionService struct {
	client   *openai.Client
	model    string
	language string
}

func NewTranscriptionService(cfg Config) *TranscriptionService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &TranscriptionService{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: cfg.Language,
	}
}

// Transcribe sends the clip to the speech API. The language probability is 1
// when the language is pinned by configuration and 0 when the API does not
// report one.
func (t *TranscriptionService) Transcribe(ctx context.Context, filename string, audio io.Reader) (Transcription, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   audio,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: t.language,
	})
	if err != nil {
		return Transcription{}, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Transcription{}, ErrEmptyTranscript
	}

	result := Transcription{
		Text:         text,
		LanguageCode: NormalizeLanguage(resp.Language),
	}
	if t.language != "" {
		result.LanguageCode = NormalizeLanguage(t.language)
		result.LanguageProbability = 1
	}

	return result, nil
}

var languageNames = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"indonesian": "id",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"hindi":      "hi",
	"arabic":     "ar",
	"russian":    "ru",
}

// NormalizeLanguage maps the full language names returned by verbose_json to
// ISO 639-1 codes. Unknown values pass through lower-cased.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if code, ok := languageNames[lang]; ok {
		return code
	}
	return lang
}
