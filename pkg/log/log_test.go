package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	stackerrors "github.com/YuminosukeSato/stackgo/pkg/errors"
)

func TestCaptureLogger(t *testing.T) {
	c := NewCaptureLogger()
	c.Info("fit started", SamplesKey, 100, FeaturesKey, 8)
	c.Warn("slow fold", FoldKey, 3)

	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "fit started" || entries[0].Level != LevelInfo {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != LevelWarn {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestCaptureLoggerWith(t *testing.T) {
	c := NewCaptureLogger()
	child := c.With(ModelNameKey, "StackingRegressor")
	child.Info("predict")

	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	found := false
	for i := 0; i+1 < len(entries[0].Fields); i += 2 {
		if entries[0].Fields[i] == ModelNameKey && entries[0].Fields[i+1] == "StackingRegressor" {
			found = true
		}
	}
	if !found {
		t.Errorf("With fields not propagated: %+v", entries[0].Fields)
	}
}

func TestProviderSwap(t *testing.T) {
	p := NewCaptureProvider()
	SetProvider(p)
	defer SetProvider(&slogProvider{})

	GetLoggerWithName("ensemble").Info("hello")

	entries := p.Root.Entries()
	if len(entries) != 1 || entries[0].Message != "hello" {
		t.Fatalf("provider swap did not take: %+v", entries)
	}
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf)

	p.GetLoggerWithName("bench").Info("run complete", MSEKey, 0.25)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record["message"] != "run complete" {
		t.Errorf("unexpected message: %v", record["message"])
	}
	if record[ComponentKey] != "bench" {
		t.Errorf("component tag missing: %v", record)
	}
}

func TestZerologWarningBridge(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf)
	p.InstallWarningBridge()
	defer stackerrors.SetZerologWarnFunc(nil)

	stackerrors.Warn(stackerrors.NewUndefinedMetricWarning("cv_mse", "no folds", 0))

	if !strings.Contains(buf.String(), "cv_mse") {
		t.Errorf("warning not routed through zerolog: %s", buf.String())
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestEnabled(t *testing.T) {
	c := NewCaptureLogger()
	c.level = LevelWarn
	if c.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !c.Enabled(context.Background(), LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
