package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		level string
		want  zapcore.Level
	}{
		{"local defaults to debug", "local", "", zapcore.DebugLevel},
		{"prod defaults to info", "prod", "", zapcore.InfoLevel},
		{"override", "prod", "warn", zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New("settlement-service", tt.env, tt.level)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := l.Level(); got != tt.want {
				t.Fatalf("level = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("settlement-service", "prod", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
