package obs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "warn", false)

	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}

	l.Warn().Str("k", "v").Msg("kept")
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON line: %v", err)
	}
	if line["message"] != "kept" || line["k"] != "v" || line["level"] != "warn" {
		t.Errorf("unexpected line: %v", line)
	}
}

func TestNewLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "chatty", false)

	l.Debug().Msg("dropped")
	l.Info().Msg("kept")
	if !bytes.Contains(buf.Bytes(), []byte("kept")) || bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
