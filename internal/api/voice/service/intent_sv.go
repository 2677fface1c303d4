package voiceService

import (
	"callstack/internal/entity"
	"callstack/pkg/classifier"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	FailureTransport   = "transport"
	FailureTimeout     = "timeout"
	FailureMalformed   = "malformed"
	FailureEmpty       = "empty"
	FailureUnavailable = "unavailable"
)

var errNoClassifier = errors.New("no classifier configured")

// IntentFailure describes why the classifier reply could not be used.
type IntentFailure struct {
	Reason string
	Err    error
}

func (f *IntentFailure) Error() string {
	if f.Err == nil {
		return f.Reason
	}
	return f.Reason + ": " + f.Err.Error()
}

func (f *IntentFailure) Unwrap() error {
	return f.Err
}

// IntentResult always carries a usable record. Failure is set when the record
// is the degraded error intent.
type IntentResult struct {
	Record  entity.IntentRecord
	Failure *IntentFailure
}

type rawIntent struct {
	Intent          string                 `json:"intent"`
	ProjectName     *string                `json:"project_name"`
	TaskDescription *string                `json:"task_description"`
	Parameters      map[string]interface{} `json:"parameters"`
	Confidence      *float64               `json:"confidence"`
	Message         string                 `json:"message"`
}

// resolveIntent asks the classifier once, bounded by the configured timeout.
// It never returns an error; failures degrade to the error intent.
func (v *voiceService) resolveIntent(ctx context.Context, transcript string, projects []entity.ProjectContext) IntentResult {
	if v.classifier == nil {
		return failedIntent(FailureUnavailable, errNoClassifier)
	}

	cctx, cancel := context.WithTimeout(ctx, v.cfg.IntentTimeout)
	defer cancel()

	reply, err := v.classifier.Complete(cctx, classifier.Request{
		SystemPrompt: v.cfg.SystemPrompt,
		Transcript:   transcript,
		ProjectNames: projectNames(projects),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return failedIntent(FailureTimeout, err)
		}
		return failedIntent(FailureTransport, err)
	}

	return ParseIntent(reply)
}

// ParseIntent decodes a classifier reply, tolerating markdown fences and
// surrounding prose.
func ParseIntent(reply string) IntentResult {
	body := extractJSON(reply)
	if body == "" {
		return failedIntent(FailureEmpty, errors.New("classifier returned an empty reply"))
	}

	if !strings.HasPrefix(body, "{") {
		return failedIntent(FailureMalformed, errors.New("classifier reply is not a JSON object"))
	}

	var raw rawIntent
	if err := json.UnmarshalFromString(body, &raw); err != nil {
		return failedIntent(FailureMalformed, err)
	}

	record := entity.IntentRecord{
		Type:            entity.ParseIntentType(raw.Intent),
		ProjectName:     nonBlank(raw.ProjectName),
		TaskDescription: nonBlank(raw.TaskDescription),
		Parameters:      raw.Parameters,
		Confidence:      raw.Confidence,
		Message:         raw.Message,
	}
	if record.Parameters == nil {
		record.Parameters = map[string]interface{}{}
	}

	return IntentResult{Record: record}
}

func extractJSON(reply string) string {
	s := strings.TrimSpace(reply)
	if s == "" {
		return ""
	}

	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}

	if strings.HasPrefix(s, "{") {
		return s
	}

	// Prose may surround the object; an object nested in an array is not an
	// intent.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start && !strings.Contains(s[:start], "[") {
		return s[start : end+1]
	}

	return s
}

func failedIntent(reason string, err error) IntentResult {
	msg := reason
	if err != nil {
		msg = fmt.Sprintf("%s: %v", reason, err)
	}

	return IntentResult{
		Record: entity.IntentRecord{
			Type:       entity.IntentError,
			Parameters: map[string]interface{}{},
			Message:    msg,
		},
		Failure: &IntentFailure{Reason: reason, Err: err},
	}
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
