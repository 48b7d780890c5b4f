package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"veopm/internal/logging"
	"veopm/internal/services"
)

func TestWithContextCarriesAnnotations(t *testing.T) {
	ctx := services.WithProject(context.Background(), "demo")
	ctx = services.WithShotID(ctx, "s1_01")
	ctx = services.WithStage(ctx, "breakdown")
	ctx = services.WithRequestID(ctx, "req-42")

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	logging.WithContext(ctx, logger).Info("annotated")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	want := map[string]string{
		logging.FieldProject:       "demo",
		logging.FieldShotID:        "s1_01",
		logging.FieldStage:         "breakdown",
		logging.FieldCorrelationID: "req-42",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("%s = %v, want %q", key, record[key], value)
		}
	}
}

func TestWithContextWithoutAnnotations(t *testing.T) {
	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("fields = %v, want none", fields)
	}

	logger := logging.NewNop()
	if got := logging.WithContext(context.Background(), logger); got != logger {
		t.Fatal("bare context should return the logger unchanged")
	}
}
