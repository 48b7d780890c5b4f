package lifecycle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"veopm/internal/generate"
	"veopm/internal/lifecycle"
	"veopm/internal/logging"
	"veopm/internal/services"
	"veopm/internal/shot"
	"veopm/internal/testsupport"
)

func TestBreakdownLogsCarryContextFields(t *testing.T) {
	gen := &fakeGenerator{
		breakdown: func(context.Context, generate.BreakdownRequest) (*generate.BreakdownResult, error) {
			return &generate.BreakdownResult{Document: &shot.VeoShotWrapper{}}, nil
		},
	}
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewProject(t, store, "demo", "Demo Project")
	testsupport.NewShot(t, store, "demo", "s1_01", "pitch")

	buf := &bytes.Buffer{}
	session := lifecycle.NewSession(store, "demo", gen, slog.New(slog.NewJSONHandler(buf, nil)))

	ctx := services.WithRequestID(context.Background(), "req-7")
	if _, err := session.RequestBreakdown(ctx, "s1_01"); err != nil {
		t.Fatalf("RequestBreakdown: %v", err)
	}

	found := false
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if record["msg"] != "breakdown complete" {
			continue
		}
		found = true
		want := map[string]string{
			logging.FieldProject:       "demo",
			logging.FieldShotID:        "s1_01",
			logging.FieldStage:         "breakdown",
			logging.FieldCorrelationID: "req-7",
			logging.FieldComponent:     "lifecycle",
		}
		for key, value := range want {
			if record[key] != value {
				t.Fatalf("%s = %v, want %q", key, record[key], value)
			}
		}
	}
	if !found {
		t.Fatalf("no completion record in log output:\n%s", buf.String())
	}
}
