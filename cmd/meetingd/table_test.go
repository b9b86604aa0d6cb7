package main

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Session", "Words"},
		[][]string{{"meeting_analysis_20260824_100000", "120"}},
		[]columnAlignment{alignLeft, alignRight},
	)

	if !strings.Contains(out, "meeting_analysis_20260824_100000") {
		t.Errorf("Expected row content in output:\n%s", out)
	}
	if !strings.Contains(out, "Session") {
		t.Errorf("Expected header in output:\n%s", out)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if out := renderTable(nil, nil, nil); out != "" {
		t.Errorf("Expected empty output for no headers, got:\n%s", out)
	}
}

func TestRenderTable_ShortRow(t *testing.T) {
	out := renderTable(
		[]string{"A", "B", "C"},
		[][]string{{"only-one"}},
		nil,
	)
	if !strings.Contains(out, "only-one") {
		t.Errorf("Expected short row padded, got:\n%s", out)
	}
}
