package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	Logger = nil
	Info("no logger yet", "k", 1)
	Debug("no logger yet")
	Warn("no logger yet")
	Error("no logger yet")
	if WithPrefix("reel") == nil {
		t.Error("WithPrefix should never return nil")
	}
}

func TestSetOutputWritesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.DebugLevel)
	defer func() { Logger = nil }()

	Info("active changed", "item", "b", "page", 1)
	WithPrefix("snap").Debug("correction", "target", 1600)

	out := buf.String()
	for _, want := range []string{"active changed", "item=b", "page=1", "snap", "target=1600"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSetOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.WarnLevel)
	defer func() { Logger = nil }()

	Info("hidden")
	Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn line missing")
	}
}

func TestInitCreatesDatedFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Close()
	Logger = nil

	matches, err := filepath.Glob(filepath.Join(dir, "logs", "reels-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("log files = %v, err = %v", matches, err)
	}
	data, _ := os.ReadFile(matches[0])
	if !strings.Contains(string(data), "reels started") {
		t.Errorf("startup line missing: %s", data)
	}
}
