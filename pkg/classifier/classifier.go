// Package classifier holds the contract shared by the intent classifier
// backends. A backend turns a Request into the raw model reply; parsing the
// reply is the caller's job.
package classifier

import (
	"fmt"
	"strings"

	"golang.org/x/net/context"
)

const (
	BackendBedrock = "bedrock"
	BackendOpenAI  = "openai"
	BackendGemini  = "gemini"
	BackendKeyword = "keyword"
)

type Request struct {
	SystemPrompt string
	Transcript   string
	ProjectNames []string
}

// UserMessage renders the transcript and the known project names the way the
// system prompt describes them.
func (r Request) UserMessage() string {
	projects := "None"
	if len(r.ProjectNames) > 0 {
		projects = strings.Join(r.ProjectNames, ", ")
	}

	return fmt.Sprintf("Context: Available Projects: %s\nUser Command: %q", projects, r.Transcript)
}

type IClassifier interface {
	Complete(ctx context.Context, req Request) (string, error)
}
