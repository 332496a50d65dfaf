package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	type spec struct {
		in     string
		exp    Level
		expErr bool
	}
	specs := []spec{
		{"debug", Debug, false},
		{" Warning ", Warning, false},
		{"ERROR", Error, false},
		{"chatty", Notice, true},
	}

	for index, s := range specs {
		got, err := ParseLevel(s.in)
		if s.expErr != (err != nil) {
			t.Fatalf("[spec %d] expected error to be %t; got %v", index, s.expErr, err)
		}
		if got != s.exp {
			t.Fatalf("[spec %d] expected level %s; got %s", index, s.exp, got)
		}
	}
}

func TestSinkAndLevels(t *testing.T) {
	defer func() {
		SetSink(os.Stdout)
		SetLevel(Notice)
	}()

	var buf bytes.Buffer
	SetLevel(Warning)
	SetSink(&buf)
	if got := GetLevel(); got != Warning {
		t.Fatalf("expected SetSink to keep level %s; got %s", Warning, got)
	}

	logger := New("log-test")
	logger.Notice("hidden")
	logger.Warning("shown")

	SetModuleLevel("log-test", Debug)
	logger.Debugf("module %s", "override")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected notice message to be filtered; got %q", out)
	}
	for _, exp := range []string{"[log-test]", "shown", "module override"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected output to contain %q; got %q", exp, out)
		}
	}
}
