package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    Level
		wantErr bool
	}{
		{raw: "trace", want: LevelTrace},
		{raw: "DEBUG", want: LevelDebug},
		{raw: "", want: LevelInfo},
		{raw: "info", want: LevelInfo},
		{raw: " warn ", want: LevelWarn},
		{raw: "warning", want: LevelWarn},
		{raw: "error", want: LevelError},
		{raw: "verbose", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.raw)
		if tt.wantErr != (err != nil) {
			t.Fatalf("ParseLevel(%q): err = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetFlags(0)
	SetLevel(LevelWarn)
	defer func() {
		SetLevel(LevelInfo)
		SetFlags(log.LstdFlags)
		SetOutput(os.Stderr)
	}()

	Debugf("hidden %d", 1)
	Infof("hidden too")
	Warnf("shown %s", "warning")
	Errorf("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("suppressed levels leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown warning") {
		t.Fatalf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] shown error") {
		t.Fatalf("missing error line: %q", out)
	}

	if Enabled(LevelDebug) {
		t.Fatal("debug enabled at warn threshold")
	}
	if !Enabled(LevelError) {
		t.Fatal("error disabled at warn threshold")
	}
}
