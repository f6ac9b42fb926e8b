package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildMetadata(t *testing.T) {
	t.Parallel()

	// Each accessor falls back to a non-empty placeholder when neither
	// ldflags nor the embedded build info provide a value.
	if got := getVersion(); got == "" {
		t.Error("getVersion() = empty")
	}
	if got := getCommit(); got == "" {
		t.Error("getCommit() = empty")
	}
	if got := getDate(); got == "" {
		t.Error("getDate() = empty")
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("Use = %q, want version", cmd.Use)
	}

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"tuecrawl version", "commit:", "built:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
