package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func jsonLogger(buf *bytes.Buffer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		NameKey:     "logger",
		MessageKey:  "message",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
		EncodeTime:  zapcore.ISO8601TimeEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(buf), zapcore.DebugLevel)
	return zap.New(core)
}

func TestProperty_ComponentLogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("component logs are JSON with component, level and message", prop.ForAll(
		func(component string, message string) bool {
			var buf bytes.Buffer
			log := Component(jsonLogger(&buf), component)
			log.Warn(message, zap.String("key", "products|limit:10"))

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Logf("FAIL: log line is not JSON: %v", err)
				return false
			}
			if entry["component"] != component {
				return false
			}
			if entry["level"] != "warn" {
				return false
			}
			if entry["message"] != message {
				return false
			}
			return entry["key"] == "products|limit:10"
		},
		gen.RegexMatch(`[a-z]{3,12}`),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestComponent_NilBase(t *testing.T) {
	log := Component(nil, "cache")
	if log == nil {
		t.Fatal("Component should never return nil")
	}
	log.Info("discarded")
}

func TestComponent_AddsField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Component(zap.New(core), "catalog").Info("cache miss")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["component"] != "catalog" {
		t.Errorf("Expected component field, got %v", entries[0].ContextMap())
	}
	if entries[0].LoggerName != "catalog" {
		t.Errorf("Expected logger name catalog, got %s", entries[0].LoggerName)
	}
}

func TestNew_Environments(t *testing.T) {
	for _, env := range []string{"production", "development", "test"} {
		log, err := New(env)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", env, err)
		}
		if log == nil {
			t.Fatalf("New(%q) returned nil logger", env)
		}
	}
}
