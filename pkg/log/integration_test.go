package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// TestLoggerInterface tests the Logger interface implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", "operation", "test")
	testLogger.Warn("warning message", "warning_code", "TEST_WARNING")
	testErr := fmt.Errorf("test error")
	testLogger.Error("error message", testErr, "error_code", "TEST_ERROR")

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}

	if !testLogger.ContainsField("number", 42.0) { // JSON unmarshaling converts numbers to float64
		t.Error("Expected field number=42 not found")
	}

	if !testLogger.ContainsField(ErrAttrKey, "test error") {
		t.Error("Leading error field should be recorded under ErrAttrKey")
	}
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "svm-linear",
		ComponentKey, "evaluation",
		RunIDKey, "run-001",
	)

	contextLogger.Info("contextual message", OperationKey, OperationEvaluate)

	if !testLogger.ContainsField(ModelNameKey, "svm-linear") {
		t.Error("Model name context not found")
	}

	if !testLogger.ContainsField(ComponentKey, "evaluation") {
		t.Error("Component context not found")
	}

	if !testLogger.ContainsField(OperationKey, OperationEvaluate) {
		t.Error("Operation field not found")
	}
}

// TestLoggerEnabled tests the Enabled method
func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Logger should be enabled for Info level")
	}

	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Error level")
	}

	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}

	if !testLogger.ContainsMessage("this should appear") {
		t.Error("Info message should appear when level is Info")
	}
}

func TestEvaluationAttributeKeys(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	testLogger.Info("Evaluation finished",
		OperationKey, OperationCrossValidate,
		SamplesKey, 1000,
		PositivesKey, 120,
		FoldKey, 2,
		ROCAUCKey, 0.91,
	)

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}

	expectedFields := map[string]interface{}{
		OperationKey: OperationCrossValidate,
		SamplesKey:   1000.0,
		PositivesKey: 120.0,
		FoldKey:      2.0,
		ROCAUCKey:    0.91,
	}
	for key, expectedValue := range expectedFields {
		if actualValue, exists := entries[0][key]; !exists {
			t.Errorf("Expected field %s not found", key)
		} else if actualValue != expectedValue {
			t.Errorf("Field %s: expected %v, got %v", key, expectedValue, actualValue)
		}
	}
}

// TestLoggerProviderIntegration tests the LoggerProvider interface
func TestLoggerProviderIntegration(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLogger().Info("provider test message")
	provider.GetLoggerWithName("test-component").Info("named logger message")

	lines := buffer.String()
	for _, want := range []string{"provider test message", "named logger message", "test-component"} {
		if !strings.Contains(lines, want) {
			t.Errorf("%q not found in output", want)
		}
	}
}

// TestConcurrentLogging tests thread safety of logging
func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	const numGoroutines, messagesPerGoroutine = 4, 25

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			child := testLogger.With("goroutine_id", id)
			for j := 0; j < messagesPerGoroutine; j++ {
				child.Info(fmt.Sprintf("goroutine %d message %d", id, j), "message_id", j)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != numGoroutines*messagesPerGoroutine {
		t.Errorf("Expected %d log entries, got %d", numGoroutines*messagesPerGoroutine, len(entries))
	}
}

func TestSlogLoggerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := NewLogger(slog.New(handler)).With(ModelNameKey, "baseline")

	logger.Error("Evaluation failed", errors.NewEmptyInputError("Accuracy"), OperationKey, OperationEvaluate)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v (%s)", err, buf.String())
	}
	if entry[ModelNameKey] != "baseline" {
		t.Errorf("missing With field: %v", entry)
	}
	if entry[ErrorTypeKey] != "*errors.EmptyInputError" {
		t.Errorf("error.type = %v, want *errors.EmptyInputError", entry[ErrorTypeKey])
	}
	if s, _ := entry[StacktraceAttrKey].(string); s == "" {
		t.Error("expected a stacktrace attribute")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	if err := SetupLogger("debug", &buf); err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	GetLogger().Debug("hello", SamplesKey, 3)

	out := buf.String()
	if !strings.Contains(out, `"severity":"DEBUG"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("unexpected output: %s", out)
	}

	if err := SetupLogger("loud", &buf); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestInstallZerologWarnings(t *testing.T) {
	var buf bytes.Buffer
	restore := InstallZerologWarnings(&buf)
	defer restore()

	errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples", 0))

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"metric":"precision"`, `"type":"UndefinedMetricWarning"`} {
		if !strings.Contains(out, want) {
			t.Errorf("zerolog output missing %s: %s", want, out)
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop().With("a", 1)
	l.Info("ignored")
	if l.Enabled(context.Background(), LevelError) {
		t.Error("Nop logger should never be enabled")
	}
}

// BenchmarkLogging benchmarks logging performance
func BenchmarkLogging(b *testing.B) {
	testLogger, _ := NewTestLogger(LevelInfo)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		testLogger.Info("benchmark message",
			"iteration", i,
			OperationKey, OperationScore,
			SamplesKey, 1000,
		)
	}
}
