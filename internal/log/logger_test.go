package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter_ProductionSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "production", "accounts-api")

	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written in production: %s", buf.String())
	}

	logger.Info().Str("user_id", "u-1").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if entry["service"] != "accounts-api" {
		t.Errorf("service = %v, want accounts-api", entry["service"])
	}
	if entry["env"] != "production" {
		t.Errorf("env = %v, want production", entry["env"])
	}
	if entry["user_id"] != "u-1" {
		t.Errorf("user_id = %v, want u-1", entry["user_id"])
	}
}

func TestNewWithWriter_DevelopmentKeepsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "development", "accounts-api")

	logger.Debug().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("debug line missing in development")
	}
}
