package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/telhawk-systems/telhawk-receiver/internal/middleware"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format string
	}{
		{
			name:   "json format with info level",
			level:  slog.LevelInfo,
			format: "json",
		},
		{
			name:   "text format with debug level",
			level:  slog.LevelDebug,
			format: "text",
		},
		{
			name:   "default format (json) with error level",
			level:  slog.LevelError,
			format: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format)
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if logger.Logger == nil {
				t.Fatal("expected non-nil underlying logger")
			}
		})
	}
}

func TestNewWithWriter_Formats(t *testing.T) {
	var jsonBuf, textBuf bytes.Buffer

	NewWithWriter(&jsonBuf, slog.LevelInfo, "json").Info("hello", "k", "v")
	NewWithWriter(&textBuf, slog.LevelInfo, "text").Info("hello", "k", "v")

	var entry map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &entry); err != nil {
		t.Fatalf("json output is not JSON: %v (%s)", err, jsonBuf.String())
	}
	if entry["msg"] != "hello" || entry["k"] != "v" {
		t.Errorf("unexpected json entry: %v", entry)
	}

	if !strings.Contains(textBuf.String(), "msg=hello") || !strings.Contains(textBuf.String(), "k=v") {
		t.Errorf("unexpected text output: %s", textBuf.String())
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn, "json")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got: %s", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn message in output, got: %s", buf.String())
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil || logger.Logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	tests := []struct {
		name        string
		ctx         context.Context
		expectReqID bool
	}{
		{
			name:        "context with request ID",
			ctx:         context.WithValue(context.Background(), middleware.RequestIDKey, "test-req-123"),
			expectReqID: true,
		},
		{
			name:        "context without request ID",
			ctx:         context.Background(),
			expectReqID: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			logger.WithContext(tt.ctx).Info("test message")

			hasID := strings.Contains(buf.String(), `"request_id":"test-req-123"`)
			if hasID != tt.expectReqID {
				t.Errorf("request_id present = %v, want %v; output: %s", hasID, tt.expectReqID, buf.String())
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelDebug, "json")
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "ctx-456")

	tests := []struct {
		name  string
		log   func()
		level string
	}{
		{"debug", func() { logger.DebugContext(ctx, "m") }, "DEBUG"},
		{"info", func() { logger.InfoContext(ctx, "m") }, "INFO"},
		{"warn", func() { logger.WarnContext(ctx, "m") }, "WARN"},
		{"error", func() { logger.ErrorContext(ctx, "m") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()

			output := buf.String()
			if !strings.Contains(output, tt.level) {
				t.Errorf("expected %s level in output, got: %s", tt.level, output)
			}
			if !strings.Contains(output, "ctx-456") {
				t.Errorf("expected request ID in output, got: %s", output)
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	enriched := logger.With(Service("receiver"))
	enriched.Info("test message")

	if !strings.Contains(buf.String(), `"service":"receiver"`) {
		t.Errorf("expected service in output, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
