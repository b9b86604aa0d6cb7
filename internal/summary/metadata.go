package summary

import (
	"regexp"
	"strings"
)

// Metadata holds what could be identified about the meeting itself
type Metadata struct {
	Date         string   `json:"date,omitempty"`
	Participants []string `json:"participants"`
	Title        string   `json:"title"`
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:meeting|call|discussion)(?:\s+(?i:on|of|dated?|held\s+on))?\s+([A-Z][a-z]+\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4})`),
	regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	regexp.MustCompile(`(\d{1,2}(?:st|nd|rd|th)?\s+[A-Z][a-z]+,?\s+\d{4})`),
}

var participantRe = regexp.MustCompile(`(?i)(?:participants|attendees|present|joining)[\s:]+([^.]*)`)

var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:meeting|call|discussion)\s+(?:about|on|regarding|re:|for)\s+([^.]*)`),
	regexp.MustCompile(`(?i)(?:title|subject|topic)[\s:]+([^.]*)`),
	regexp.MustCompile(`(?i)welcome\s+to\s+(?:the|our)?\s*([^.]*(?:meeting|call|discussion))`),
}

// ExtractMetadata pulls date, participants, and title out of the transcript
// with pattern matching. Anything not found is left at its zero value except
// the title, which falls back to the first ten words of the first sentence.
func ExtractMetadata(text string) Metadata {
	meta := Metadata{Participants: []string{}}

	for _, pattern := range datePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			meta.Date = m[1]
			break
		}
	}

	if m := participantRe.FindStringSubmatch(text); m != nil {
		meta.Participants = splitParticipants(m[1])
	}

	for _, pattern := range titlePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			meta.Title = strings.TrimSpace(m[1])
			break
		}
	}

	if meta.Title == "" {
		if sentences := SplitSentences(text); len(sentences) > 0 {
			words := strings.Fields(sentences[0])
			if len(words) > 10 {
				words = words[:10]
			}
			meta.Title = strings.Join(words, " ")
		}
	}

	return meta
}

// splitParticipants splits a participant list on the first separator found,
// trying comma, then semicolon, then "and"
func splitParticipants(text string) []string {
	for _, sep := range []string{",", ";", "and"} {
		if !strings.Contains(text, sep) {
			continue
		}
		var names []string
		for _, p := range strings.Split(text, sep) {
			if p = strings.TrimSpace(p); p != "" {
				names = append(names, p)
			}
		}
		return names
	}
	return []string{}
}
