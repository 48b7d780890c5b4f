package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestWriteJSONKeepsAngleBrackets(t *testing.T) {
	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	if err := writeJSON(cmd, map[string]string{"prompt": "<wide shot> rain & neon"}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "<wide shot> rain & neon") {
		t.Fatalf("prompt text escaped: %s", buf.String())
	}
}
