package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New("info").Output(&buf)

	log.Info().Str("template", "new_review").Msg("rendered")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v, output: %s", err, buf.String())
	}
	if entry["message"] != "rendered" {
		t.Errorf("expected message 'rendered', got %v", entry["message"])
	}
	if entry["template"] != "new_review" {
		t.Errorf("expected template field, got %v", entry["template"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON output")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		debug     bool
		shouldLog bool
	}{
		{"info logger skips debug", "info", true, false},
		{"info logger logs info", "info", false, true},
		{"debug logger logs debug", "debug", true, true},
		{"invalid level falls back to info", "loud", true, false},
		{"empty level falls back to info", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tt.level).Output(&buf)

			if tt.debug {
				log.Debug().Msg("test")
			} else {
				log.Info().Msg("test")
			}

			if got := buf.Len() > 0; got != tt.shouldLog {
				t.Errorf("expected shouldLog=%v, output=%q", tt.shouldLog, buf.String())
			}
		})
	}
}

func TestNewFromOptions_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notify.log")

	log := NewFromOptions(Options{Level: "info", Output: "file", FilePath: path, MaxSizeMB: 1})
	log.Info().Msg("to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"to file"`) {
		t.Errorf("expected JSON entry in file, got %q", data)
	}
}

func TestFromContext_WithCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := New("info").Output(&buf)

	ctx := WithLogger(context.Background(), base)
	ctx = WithCorrelationID(ctx, "corr-123")

	log := FromContext(ctx)
	log.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"correlation_id":"corr-123"`) {
		t.Errorf("expected correlation_id in output, got %s", buf.String())
	}
}

func TestFromContext_NoLogger(t *testing.T) {
	if CorrelationIDFromContext(context.Background()) != "" {
		t.Error("expected empty correlation id")
	}
	log := FromContext(context.Background())
	if log.GetLevel().String() != "info" {
		t.Errorf("expected default info level, got %s", log.GetLevel())
	}
}

func TestNewCorrelationID_Unique(t *testing.T) {
	a, b := NewCorrelationID(), NewCorrelationID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}
