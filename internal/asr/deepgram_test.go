package asr

import (
	"encoding/json"
	"testing"

	restinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
)

func decodeResponse(t *testing.T, body string) *restinterfaces.PreRecordedResponse {
	t.Helper()
	var resp restinterfaces.PreRecordedResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Failed to decode response fixture: %v", err)
	}
	return &resp
}

func TestFromResponse_UtteranceSegments(t *testing.T) {
	resp := decodeResponse(t, `{
		"metadata": {"duration": 12.5},
		"results": {
			"channels": [{
				"detected_language": "en",
				"alternatives": [{"transcript": "hello there. how are you."}]
			}],
			"utterances": [
				{"start": 0.1, "end": 2.0, "transcript": "hello there."},
				{"start": 2.5, "end": 4.0, "transcript": "how are you."},
				{"start": 4.5, "end": 5.0, "transcript": "   "}
			]
		}
	}`)

	result := fromResponse(resp, 0)

	if result.Text != "hello there. how are you." {
		t.Errorf("Unexpected text: '%s'", result.Text)
	}
	if result.DetectedLanguage != "en" {
		t.Errorf("Expected detected language 'en', got '%s'", result.DetectedLanguage)
	}
	// Whitespace-only utterance is dropped
	if len(result.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(result.Segments))
	}
	if result.Segments[0].Start != 0.1 || result.Segments[0].End != 2.0 {
		t.Errorf("Unexpected first segment timing: %+v", result.Segments[0])
	}
	if result.Segments[1].Text != "how are you." {
		t.Errorf("Unexpected second segment text: '%s'", result.Segments[1].Text)
	}
}

func TestFromResponse_FallbackSegment(t *testing.T) {
	resp := decodeResponse(t, `{
		"metadata": {"duration": 7.0},
		"results": {
			"channels": [{
				"alternatives": [{"transcript": "whole recording text"}]
			}]
		}
	}`)

	result := fromResponse(resp, 0)

	if len(result.Segments) != 1 {
		t.Fatalf("Expected single fallback segment, got %d", len(result.Segments))
	}
	if result.Segments[0].Start != 0 || result.Segments[0].End != 7.0 {
		t.Errorf("Expected fallback span [0, 7], got %+v", result.Segments[0])
	}
	if result.Segments[0].Text != "whole recording text" {
		t.Errorf("Unexpected fallback text: '%s'", result.Segments[0].Text)
	}
}

func TestFromResponse_FallbackUsesCallerDuration(t *testing.T) {
	resp := decodeResponse(t, `{
		"results": {
			"channels": [{
				"alternatives": [{"transcript": "segment text"}]
			}]
		}
	}`)

	result := fromResponse(resp, 3.5)

	if len(result.Segments) != 1 {
		t.Fatalf("Expected single fallback segment, got %d", len(result.Segments))
	}
	if result.Segments[0].Start != 0 || result.Segments[0].End != 3.5 {
		t.Errorf("Expected fallback span [0, 3.5], got %+v", result.Segments[0])
	}
}

func TestFromResponse_NoDurationSkipsFallback(t *testing.T) {
	resp := decodeResponse(t, `{
		"results": {
			"channels": [{
				"alternatives": [{"transcript": "text without any timing"}]
			}]
		}
	}`)

	result := fromResponse(resp, 0)

	// A segment must span a positive duration, so none is emitted when the
	// audio length is unknown. The recognized text is still returned.
	if len(result.Segments) != 0 {
		t.Errorf("Expected no segments without a known duration, got %+v", result.Segments)
	}
	if result.Text != "text without any timing" {
		t.Errorf("Unexpected text: '%s'", result.Text)
	}
}

func TestFromResponse_Empty(t *testing.T) {
	result := fromResponse(nil, 0)
	if result.Text != "" || len(result.Segments) != 0 {
		t.Errorf("Expected empty result for nil response, got %+v", result)
	}

	result = fromResponse(decodeResponse(t, `{"results": {"channels": []}}`), 0)
	if result.Text != "" || len(result.Segments) != 0 {
		t.Errorf("Expected empty result for empty channels, got %+v", result)
	}
}
