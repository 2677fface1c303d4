package nlp

import (
	"math"
	"strings"
	"unicode"

	"callstack/pkg/classifier"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KeywordClassifier resolves intents offline with keyword rules and fuzzy
// project name matching. It serves development setups without model access.
type KeywordClassifier struct {
	fuzzyThreshold float64
	taskWords      map[string]bool
	createVerbs    map[string]bool
	statusPhrases  [][]string
	prepositions   map[string]bool
	leadingFiller  map[string]bool
	nameFiller     map[string]bool
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		fuzzyThreshold: 0.8,
		taskWords:      set("task", "tasks", "todo", "reminder", "remind"),
		createVerbs:    set("create", "make", "start", "new", "add", "setup", "begin", "open"),
		statusPhrases: [][]string{
			{"status"}, {"progress"}, {"summary"}, {"overview"},
			{"how", "am", "i", "doing"}, {"what", "s", "pending"}, {"what", "is", "pending"},
			{"what", "do", "i", "have"}, {"how", "are", "my", "projects"},
		},
		prepositions: set("to", "for", "in", "on", "into", "under"),
		leadingFiller: set(
			"please", "add", "create", "make", "put", "new", "a", "an", "the",
			"task", "tasks", "todo", "reminder", "remind", "me", "to", "called",
			"named", "that", "says", "saying",
		),
		nameFiller: set("called", "named", "titled", "a", "an", "the", "new"),
	}
}

func (k *KeywordClassifier) Complete(_ context.Context, req classifier.Request) (string, error) {
	return json.MarshalToString(k.Classify(req.Transcript, req.ProjectNames))
}

func (k *KeywordClassifier) Classify(transcript string, projects []string) *IntentResult {
	head, tail, hasColon := strings.Cut(transcript, ":")
	if !hasColon {
		head = transcript
	}

	display := tokenize(head)
	folded := foldTokens(display)

	switch {
	case k.isTask(folded, projects):
		return k.taskIntent(display, folded, strings.TrimSpace(tail), hasColon, projects)
	case contains(folded, "project") && k.hasAny(folded, k.createVerbs):
		return k.projectIntent(display, folded)
	case k.isStatus(foldTokens(tokenize(transcript))):
		return newResult("status_check", nil, nil, 0.8, nil)
	}

	return newResult("unknown", nil, nil, 0.2, nil)
}

func (k *KeywordClassifier) isTask(folded []string, projects []string) bool {
	if k.hasAny(folded, k.taskWords) {
		return true
	}
	if len(folded) == 0 || folded[0] != "add" {
		return false
	}
	_, ok := k.findProject(folded, projects)
	return ok
}

func (k *KeywordClassifier) isStatus(folded []string) bool {
	for _, phrase := range k.statusPhrases {
		if indexOf(folded, phrase) >= 0 {
			return true
		}
	}
	return false
}

func (k *KeywordClassifier) projectIntent(display, folded []string) *IntentResult {
	idx := indexOf(folded, []string{"project"})

	start := idx + 1
	for start < len(folded) && k.nameFiller[folded[start]] {
		start++
	}
	name := strings.Join(trimTrailing(display[start:], folded[start:], "please"), " ")

	if name == "" {
		// "start a new Launch project"
		begin := 0
		for begin < idx && (k.createVerbs[folded[begin]] || k.nameFiller[folded[begin]] || folded[begin] == "please") {
			begin++
		}
		name = strings.Join(display[begin:idx], " ")
	}

	if name == "" {
		return newResult("create_project", nil, nil, 0.5, nil)
	}

	return newResult("create_project", &name, nil, 0.85, nil)
}

func (k *KeywordClassifier) taskIntent(display, folded []string, tail string, hasColon bool, projects []string) *IntentResult {
	m, ok := k.findProject(folded, projects)
	if !ok {
		m, ok = k.patternProject(display, folded, hasColon)
	}

	var description string
	if hasColon && tail != "" {
		description = strings.Join(tokenize(tail), " ")
	} else {
		description = k.descriptionWithout(display, folded, m, ok)
	}

	var projectName, taskDescription *string
	if ok {
		projectName = &m.name
	}
	if description != "" {
		taskDescription = &description
	}

	confidence := 0.5
	params := map[string]interface{}{}
	if ok {
		params["project_match"] = m.kind
		switch m.kind {
		case matchExact:
			confidence = 0.9
		case matchFuzzy:
			confidence = 0.75
		default:
			confidence = 0.6
		}
	}
	if taskDescription == nil {
		confidence = math.Min(confidence, 0.5)
	}

	return newResult("create_task", projectName, taskDescription, confidence, params)
}

// findProject looks for a known project name in the tokens, exact first and
// then by edit distance. Longer names win over shorter ones.
func (k *KeywordClassifier) findProject(folded []string, projects []string) (mention, bool) {
	var best mention
	found := false

	for _, name := range projects {
		nameTokens := foldTokens(tokenize(name))
		if len(nameTokens) == 0 {
			continue
		}
		if idx := indexOf(folded, nameTokens); idx >= 0 {
			if !found || best.kind != matchExact || len(nameTokens) > best.end-best.start {
				best = mention{name: name, start: idx, end: idx + len(nameTokens), kind: matchExact}
				found = true
			}
		}
	}
	if found {
		return best, true
	}

	bestScore := 0.0
	for _, name := range projects {
		nameTokens := foldTokens(tokenize(name))
		n := len(nameTokens)
		if n == 0 {
			continue
		}
		target := strings.Join(nameTokens, " ")
		for i := 0; i+n <= len(folded); i++ {
			if k.leadingFiller[folded[i]] {
				continue
			}
			score := similarity(strings.Join(folded[i:i+n], " "), target)
			if score >= k.fuzzyThreshold && score > bestScore {
				bestScore = score
				best = mention{name: name, start: i, end: i + n, kind: matchFuzzy}
				found = true
			}
		}
	}

	return best, found
}

// patternProject extracts an unknown project name from phrasing such as
// "to project X" or "add a task to X: ...".
func (k *KeywordClassifier) patternProject(display, folded []string, hasColon bool) (mention, bool) {
	if idx := indexOf(folded, []string{"project"}); idx >= 0 {
		start := idx + 1
		for start < len(folded) && k.nameFiller[folded[start]] {
			start++
		}
		end := start
		for end < len(folded) && !k.prepositions[folded[end]] {
			end++
		}
		if end > start {
			return mention{name: strings.Join(display[start:end], " "), start: idx, end: end, kind: matchPattern}, true
		}
	}

	if hasColon {
		for i := len(folded) - 1; i >= 0; i-- {
			if !k.prepositions[folded[i]] {
				continue
			}
			start := i + 1
			for start < len(folded) && k.nameFiller[folded[start]] {
				start++
			}
			if start < len(folded) {
				return mention{name: strings.Join(display[start:], " "), start: i, end: len(folded), kind: matchPattern}, true
			}
			break
		}
	}

	return mention{}, false
}

// descriptionWithout drops the project mention together with the
// preposition and "project" word around it, then strips command words.
func (k *KeywordClassifier) descriptionWithout(display, folded []string, m mention, hasMention bool) string {
	keep := make([]bool, len(folded))
	for i := range keep {
		keep[i] = true
	}

	if hasMention {
		start, end := m.start, m.end
		for start > 0 && (folded[start-1] == "the" || folded[start-1] == "project") {
			start--
		}
		if start > 0 && k.prepositions[folded[start-1]] {
			start--
		}
		if end < len(folded) && folded[end] == "project" {
			end++
		}
		for i := start; i < end; i++ {
			keep[i] = false
		}
	}

	var words, foldedWords []string
	for i, ok := range keep {
		if ok {
			words = append(words, display[i])
			foldedWords = append(foldedWords, folded[i])
		}
	}

	start := 0
	for start < len(foldedWords) && k.leadingFiller[foldedWords[start]] {
		start++
	}

	return strings.Join(trimTrailing(words[start:], foldedWords[start:], "please"), " ")
}

func (k *KeywordClassifier) hasAny(folded []string, words map[string]bool) bool {
	for _, t := range folded {
		if words[t] {
			return true
		}
	}
	return false
}

func newResult(intent string, projectName, taskDescription *string, confidence float64, params map[string]interface{}) *IntentResult {
	if params == nil {
		params = map[string]interface{}{}
	}
	params["matcher"] = "keyword"

	return &IntentResult{
		Intent:          intent,
		ProjectName:     projectName,
		TaskDescription: taskDescription,
		Parameters:      params,
		Confidence:      confidence,
	}
}

// tokenize splits on anything that is not a letter, digit or combining mark,
// keeping the original case.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r))
	})
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldTokens(tokens []string) []string {
	folded := make([]string, len(tokens))
	for i, t := range tokens {
		s, _, err := transform.String(stripMarks, strings.ToLower(t))
		if err != nil {
			s = strings.ToLower(t)
		}
		folded[i] = s
	}
	return folded
}

func trimTrailing(display, folded []string, word string) []string {
	end := len(display)
	for end > 0 && folded[end-1] == word {
		end--
	}
	return display[:end]
}

func indexOf(tokens, phrase []string) int {
	if len(phrase) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, p := range phrase {
			if tokens[i+j] != p {
				continue outer
			}
		}
		return i
	}
	return -1
}

func contains(tokens []string, word string) bool {
	return indexOf(tokens, []string{word}) >= 0
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	ra, rb := []rune(a), []rune(b)
	maxLen := math.Max(float64(len(ra)), float64(len(rb)))
	if maxLen == 0 {
		return 0.0
	}

	return math.Max(0, 1.0-float64(levenshteinDistance(ra, rb))/maxLen)
}

func levenshteinDistance(s1, s2 []rune) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
