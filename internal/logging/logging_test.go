package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		"empty":   {in: "", want: zapcore.InfoLevel},
		"debug":   {in: "debug", want: zapcore.DebugLevel},
		"upper":   {in: " WARN ", want: zapcore.WarnLevel},
		"unknown": {in: "verbose", wantErr: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := New("error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at error level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error should be enabled")
	}

	if _, err := New("nope"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
