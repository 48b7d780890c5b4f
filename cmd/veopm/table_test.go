package main

import (
	"strings"
	"testing"
)

func TestRenderTableWrapsProseColumns(t *testing.T) {
	pitch := "a slow dolly across the abandoned lighthouse kitchen while rain streaks the window glass"
	rendered := renderTable(
		[]string{"ID", "Pitch"},
		[][]string{{"s1_01", pitch}},
		[]columnAlignment{alignLeft, alignLeft},
	)

	for _, line := range strings.Split(rendered, "\n") {
		if strings.Contains(line, pitch) {
			t.Fatalf("pitch not wrapped:\n%s", rendered)
		}
	}
	if !strings.Contains(rendered, "dolly") {
		t.Fatalf("pitch text missing:\n%s", rendered)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	rendered := renderTable(
		[]string{"ID", "Status", "Video"},
		[][]string{{"s1_01"}},
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	)
	if !strings.Contains(rendered, "s1_01") {
		t.Fatalf("row missing:\n%s", rendered)
	}
}
