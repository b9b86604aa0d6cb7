package summary

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// numTopics is how many frequency-ranked terms are reported as key topics
const numTopics = 5

// minSummarySentences is the floor for the extractive summary size
const minSummarySentences = 3

// Result is the meeting summary with its metadata and key topics
type Result struct {
	Metadata             Metadata `json:"metadata"`
	KeyTopics            []string `json:"key_topics"`
	Summary              string   `json:"summary"`
	FullTranscriptLength int      `json:"full_transcript_length"`
	SummaryLength        int      `json:"summary_length"`
	CompressionRatio     float64  `json:"compression_ratio"`
	GeneratedAt          string   `json:"generated_at"`
}

// Summarizer produces extractive summaries by frequency-weighted sentence
// scoring. Sentences are reproduced verbatim and in their original order;
// nothing is paraphrased.
type Summarizer struct {
	ratio  float64
	logger zerolog.Logger
}

// NewSummarizer creates a summarizer keeping roughly the given fraction of
// sentences
func NewSummarizer(ratio float64, logger zerolog.Logger) *Summarizer {
	if ratio <= 0 || ratio > 1 {
		ratio = 0.3
	}
	return &Summarizer{ratio: ratio, logger: logger}
}

// Summarize builds the full summary result for a transcript
func (s *Summarizer) Summarize(text string) *Result {
	sentences := SplitSentences(text)
	summary := strings.Join(s.selectSentences(text, sentences), " ")

	ratio := 0.0
	if len(text) > 0 {
		ratio = float64(len(summary)) / float64(len(text))
	}

	s.logger.Info().
		Int("sentences", len(sentences)).
		Int("summary_length", len(summary)).
		Msg("Summary generated")

	return &Result{
		Metadata:             ExtractMetadata(text),
		KeyTopics:            KeyTopics(text),
		Summary:              summary,
		FullTranscriptLength: len(text),
		SummaryLength:        len(summary),
		CompressionRatio:     ratio,
		GeneratedAt:          time.Now().Format("2006-01-02 15:04:05"),
	}
}

// KeyTopics returns the most frequent content words as topics. Ties are
// broken by first appearance in the text.
func KeyTopics(text string) []string {
	words := contentWords(tokenizeWords(text))

	freq := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, w := range words {
		if len(w) <= 3 {
			continue
		}
		if _, ok := firstSeen[w]; !ok {
			firstSeen[w] = i
		}
		freq[w]++
	}

	unique := make([]string, 0, len(freq))
	for w := range freq {
		unique = append(unique, w)
	}
	sort.Slice(unique, func(i, j int) bool {
		if freq[unique[i]] != freq[unique[j]] {
			return freq[unique[i]] > freq[unique[j]]
		}
		return firstSeen[unique[i]] < firstSeen[unique[j]]
	})

	if len(unique) > numTopics {
		unique = unique[:numTopics]
	}
	return unique
}

// selectSentences picks the highest scoring sentences, returned in original
// order. Short transcripts are returned whole.
func (s *Summarizer) selectSentences(text string, sentences []string) []string {
	if len(sentences) <= minSummarySentences {
		return sentences
	}

	frequencies := make(map[string]int)
	for _, w := range contentWords(tokenizeWords(text)) {
		frequencies[w]++
	}

	// Score each sentence by the summed frequency of its content words,
	// normalized by sentence length to avoid favoring long sentences
	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, 0, len(sentences))
	for i, sentence := range sentences {
		tokens := tokenizeWords(sentence)
		sum := 0
		for _, w := range tokens {
			sum += frequencies[w]
		}
		if sum == 0 {
			continue
		}
		length := len(tokens)
		if length < 1 {
			length = 1
		}
		scores = append(scores, scored{index: i, score: float64(sum) / float64(length)})
	}

	keep := int(float64(len(sentences)) * s.ratio)
	if keep < minSummarySentences {
		keep = minSummarySentences
	}

	// Stable sort keeps earlier sentences ahead on score ties
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
	if len(scores) > keep {
		scores = scores[:keep]
	}

	indices := make([]int, len(scores))
	for i, sc := range scores {
		indices[i] = sc.index
	}
	sort.Ints(indices)

	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = sentences[idx]
	}
	return out
}
