package pipeline

import "strings"

// Classifier flags an utterance as interrogative. The production
// implementation is a heuristic; a smarter upstream classifier can be
// plugged in without touching the pipeline.
type Classifier interface {
	IsQuestion(text string) bool
}

// interrogativeLeads are the lead words and phrases that mark a question
// when an utterance starts with one of them.
var interrogativeLeads = []string{
	"what", "why", "how", "when", "where", "who",
	"can you", "could you", "would you",
	"tell me", "explain", "describe",
}

// HeuristicClassifier flags text ending in '?' or starting with an
// interrogative lead, case-insensitive after trimming.
type HeuristicClassifier struct{}

// IsQuestion implements Classifier.
func (HeuristicClassifier) IsQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "?") {
		return true
	}
	for _, lead := range interrogativeLeads {
		if strings.HasPrefix(t, lead) {
			return true
		}
	}
	return false
}
