package actions

import (
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ActionItem is one commitment extracted from the transcript
type ActionItem struct {
	// Action is the full matched phrase
	Action string `json:"action"`

	// Context is the sentence containing the match, or the match itself when
	// no containing sentence is found
	Context string `json:"context"`

	// AssignedTo is the best-effort assignee, "Unassigned" when no name
	// precedes the modal verb
	AssignedTo string `json:"assigned_to"`

	// ExtractedAt is when the item was extracted
	ExtractedAt string `json:"extracted_at"`
}

// Unassigned is the assignee used when no name could be extracted
const Unassigned = "Unassigned"

// Ordered pattern set. The heuristic is recall-biased; false positives are
// accepted in exchange for never missing an explicit commitment phrasing.
var actionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:need to|must|should|will|going to|have to|assigned to|responsible for)\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)action items?:?\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)tasks? for\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)(?:follow[ -]up|follow up)s?:?\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)(?:[A-Z][a-z]+(?:\s[A-Z][a-z]+)?)\s+(?:will|should|needs to)\s+([^.!?]+)`),
}

// sentenceSplitRe marks sentence boundaries: terminal punctuation followed by
// a capital letter
var sentenceSplitRe = regexp.MustCompile(`[.!?]\s+[A-Z]`)

// assigneeRe captures a capitalized name (one or two tokens) immediately
// preceding a modal verb
var assigneeRe = regexp.MustCompile(`([A-Z][a-z]+(?:\s[A-Z][a-z]+)?)\s+(?:will|should|needs to|has to|is going to)`)

// Extractor scans transcript text for action items
type Extractor struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewExtractor creates an action-item extractor
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{logger: logger, now: time.Now}
}

// Extract finds action items in the transcript text. Items are deduplicated
// by normalized action text with first-seen order preserved, so running
// extraction twice on the same text yields the same list.
func (e *Extractor) Extract(text string) []ActionItem {
	sentences := splitSentences(text)
	extractedAt := e.now().Format("2006-01-02 15:04:05")

	items := []ActionItem{}
	seen := make(map[string]bool)

	for _, pattern := range actionPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			action := strings.TrimSpace(match)
			if action == "" {
				continue
			}

			key := normalizeAction(action)
			if seen[key] {
				continue
			}
			seen[key] = true

			items = append(items, ActionItem{
				Action:      action,
				Context:     containingSentence(sentences, action),
				AssignedTo:  extractAssignee(action),
				ExtractedAt: extractedAt,
			})
		}
	}

	e.logger.Info().Int("count", len(items)).Msg("Action items extracted")
	return items
}

// splitSentences cuts the transcript at sentence boundaries
func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// containingSentence returns the first sentence containing the action, or
// the action itself when none does. Boundary splitting consumes the leading
// capital of the next sentence, so the lookup is case-normalized.
func containingSentence(sentences []string, action string) string {
	needle := strings.ToLower(action)
	for _, sentence := range sentences {
		if strings.Contains(strings.ToLower(sentence), needle) {
			return sentence
		}
	}
	return action
}

// extractAssignee pulls a name preceding a modal verb out of the action text
func extractAssignee(action string) string {
	if m := assigneeRe.FindStringSubmatch(action); m != nil {
		return m[1]
	}
	return Unassigned
}

// normalizeAction is the dedup key: case-insensitive with whitespace collapsed
func normalizeAction(action string) string {
	return strings.Join(strings.Fields(strings.ToLower(action)), " ")
}
