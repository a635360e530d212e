package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupText(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("debug", "text", &buf)
	logger.Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("expected text-formatted output, got %q", buf.String())
	}
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("info", "json", &buf)
	logger.Info("hello", "key", "value")
	if !strings.Contains(buf.String(), `"key":"value"`) {
		t.Errorf("expected json-formatted output, got %q", buf.String())
	}
}

func TestSetupDefaultsToTextOnUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	Setup("info", "yaml", &buf).Info("hi")
	if strings.HasPrefix(buf.String(), "{") {
		t.Error("expected unknown format to fall back to text, got JSON")
	}
}

func TestSetupRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("warn", "text", &buf)
	logger.Info("should not appear")
	logger.Warn("should appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Error("expected info log to be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("expected warn log to pass through")
	}
}

func TestForInterfaceBindsIfaceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("info", "text", &buf)
	ifLogger := ForInterface(logger, "eth0")
	ifLogger.Info("bound")
	if !strings.Contains(buf.String(), "iface=eth0") {
		t.Errorf("expected iface=eth0 attribute, got %q", buf.String())
	}
}
