package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"vodflow/internal/logging"
)

func TestNewConsoleWritesKeyValueLine(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("asset created", logging.String("asset_id", "nb:cid:UUID:1"), logging.Int("blocks", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO asset created") {
		t.Fatalf("missing level/message in %q", line)
	}
	if !strings.Contains(line, "asset_id=nb:cid:UUID:1") || !strings.Contains(line, "blocks=3") {
		t.Fatalf("missing attributes in %q", line)
	}
}

func TestNewConsoleQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("upload", logging.String("file", "home movie.mp4"))
	if !strings.Contains(buf.String(), `file="home movie.mp4"`) {
		t.Fatalf("expected quoted value in %q", buf.String())
	}
}

func TestNewHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed at warn level, got %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "WARN loud") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("job submitted", logging.String("job_id", "nb:jid:UUID:2"))
	if !strings.Contains(buf.String(), `"job_id":"nb:jid:UUID:2"`) {
		t.Fatalf("expected JSON attributes, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored")
	component := logging.NewComponentLogger(nil, "locators")
	component.Info("also ignored")
}
