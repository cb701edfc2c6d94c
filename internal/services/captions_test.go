package services

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseCaptionOptionsNumberedList(t *testing.T) {
	got := ParseCaptionOptions("1. \"Hello\"\n2. World\n")
	if len(got) != 2 {
		t.Fatalf("len(options) = %d, want 2", len(got))
	}
	if got[0] != "Hello" {
		t.Errorf("options[0] = %q, want %q", got[0], "Hello")
	}
	if got[1] != "World" {
		t.Errorf("options[1] = %q, want %q", got[1], "World")
	}
}

func TestParseCaptionOptionsTolerantFormats(t *testing.T) {
	raw := "Here you go:\n1) Fresh drop\n  2.   'Quoted one'  \nnot numbered\n3. Last"
	got := ParseCaptionOptions(raw)
	want := []string{"Fresh drop", "Quoted one", "Last"}
	if len(got) != len(want) {
		t.Fatalf("len(options) = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("options[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseCaptionOptionsFallbackWholeText(t *testing.T) {
	got := ParseCaptionOptions("no numbers here")
	if len(got) != 1 || got[0] != "no numbers here" {
		t.Fatalf("options = %v, want [\"no numbers here\"]", got)
	}
}

func TestParseCaptionOptionsEmpty(t *testing.T) {
	if got := ParseCaptionOptions(""); len(got) != 0 {
		t.Fatalf("options = %v, want empty", got)
	}
	if got := ParseCaptionOptions("   \n  "); len(got) != 0 {
		t.Fatalf("options = %v, want empty", got)
	}
}

func TestParseCaptionOptionsCap(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "%d. caption number %d\n", i, i)
	}
	got := ParseCaptionOptions(b.String())
	if len(got) != MaxCaptionOptions {
		t.Fatalf("len(options) = %d, want %d", len(got), MaxCaptionOptions)
	}
	if got[0] != "caption number 1" || got[19] != "caption number 20" {
		t.Errorf("unexpected boundary entries: first %q last %q", got[0], got[19])
	}
}
