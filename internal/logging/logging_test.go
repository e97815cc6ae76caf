package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.WithField("bug", "bug-00001").Debug("created")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "created" || entry["bug"] != "bug-00001" || entry["level"] != "debug" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry logged at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn entry missing: %s", out)
	}
}

func TestConfigure_DefaultFields(t *testing.T) {
	var buf bytes.Buffer
	l := log.New()
	l.SetOutput(&buf)
	if err := Configure(l, "info", "json", log.Fields{"app": "bugboard", "env": "test"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	l.WithField("env", "override").Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["app"] != "bugboard" {
		t.Errorf("app = %v, want default field", entry["app"])
	}
	if entry["env"] != "override" {
		t.Errorf("env = %v, entry fields should win over defaults", entry["env"])
	}
}

func TestConfigure_Errors(t *testing.T) {
	if err := Configure(log.New(), "loud", "text", nil); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Configure(log.New(), "info", "xml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
