package nlp

// IntentResult mirrors the JSON record the hosted classifiers return.
type IntentResult struct {
	Intent          string                 `json:"intent"`
	ProjectName     *string                `json:"project_name"`
	TaskDescription *string                `json:"task_description"`
	Parameters      map[string]interface{} `json:"parameters"`
	Confidence      float64                `json:"confidence"`
}

const (
	matchExact   = "exact"
	matchFuzzy   = "fuzzy"
	matchPattern = "pattern"
)

// mention is a span of tokens naming a project.
type mention struct {
	name  string
	start int
	end   int
	kind  string
}
