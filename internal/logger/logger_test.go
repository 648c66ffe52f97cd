package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		DebugLevel: zapcore.DebugLevel,
		"verbose":  defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q): want %v, got %v", in, want, got)
		}
	}
}

func TestGet_ReturnsSingleton(t *testing.T) {
	a := Get(InfoLevel)
	b := Init(ErrorLevel, JSONEncoding)
	if a != b {
		t.Fatalf("expected the same logger instance")
	}
}

func TestNop_DiscardsWithoutPanicking(t *testing.T) {
	t.Parallel()

	l := Nop().Named("test")
	l.Infow("cycle_completed", "site", "88k")
}
