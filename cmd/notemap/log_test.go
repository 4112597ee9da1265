package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false, false)

	logger.Debug("hidden")
	logger.Info("server starting", "addr", ":8080")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record written at info level: %s", line)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("not JSON: %v (%s)", err, line)
	}
	if rec["msg"] != "server starting" || rec["addr"] != ":8080" {
		t.Errorf("record: got %v", rec)
	}
}

func TestNewLoggerDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, true, true)

	logger.Debug("cache miss", "user_id", "u1")

	out := buf.String()
	if !strings.Contains(out, "cache miss") || !strings.Contains(out, "user_id=u1") {
		t.Errorf("dev output: got %q", out)
	}
}
