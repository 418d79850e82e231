package llm

import (
	"strings"
	"testing"
)

// feedAll runs the splitter over the given chunks and returns the
// concatenated reasoning and answer text.
func feedAll(s *ReasoningSplitter, chunks []string) (reasoning, text string) {
	collect := func(segs []Segment) {
		for _, seg := range segs {
			if seg.Reasoning {
				reasoning += seg.Text
			} else {
				text += seg.Text
			}
		}
	}
	for _, chunk := range chunks {
		collect(s.Feed(chunk))
	}
	collect(s.Flush())
	return reasoning, text
}

func TestReasoningSplitter_WholeTags(t *testing.T) {
	s := NewReasoningSplitter("think")

	reasoning, text := feedAll(s, []string{"<think>pondering</think>the answer"})

	if reasoning != "pondering" {
		t.Errorf("reasoning = %q, want %q", reasoning, "pondering")
	}
	if text != "the answer" {
		t.Errorf("text = %q, want %q", text, "the answer")
	}
}

func TestReasoningSplitter_TagSplitAcrossChunks(t *testing.T) {
	s := NewReasoningSplitter("think")

	chunks := []string{"<th", "ink>deep ", "thought</t", "hink>done"}
	reasoning, text := feedAll(s, chunks)

	if reasoning != "deep thought" {
		t.Errorf("reasoning = %q, want %q", reasoning, "deep thought")
	}
	if text != "done" {
		t.Errorf("text = %q, want %q", text, "done")
	}
}

func TestReasoningSplitter_NoTags(t *testing.T) {
	s := NewReasoningSplitter("think")

	reasoning, text := feedAll(s, []string{"plain ", "output"})

	if reasoning != "" {
		t.Errorf("reasoning = %q, want empty", reasoning)
	}
	if text != "plain output" {
		t.Errorf("text = %q, want %q", text, "plain output")
	}
}

func TestReasoningSplitter_UnclosedTag(t *testing.T) {
	s := NewReasoningSplitter("think")

	reasoning, text := feedAll(s, []string{"<think>never closed"})

	if reasoning != "never closed" {
		t.Errorf("reasoning = %q, want %q", reasoning, "never closed")
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestReasoningSplitter_PartialTagEmittedOnFlush(t *testing.T) {
	s := NewReasoningSplitter("think")

	reasoning, text := feedAll(s, []string{"look: <thi"})

	if reasoning != "" {
		t.Errorf("reasoning = %q, want empty", reasoning)
	}
	if text != "look: <thi" {
		t.Errorf("text = %q, want %q", text, "look: <thi")
	}
}

func TestReasoningSplitter_AngleBracketsInText(t *testing.T) {
	s := NewReasoningSplitter("think")

	reasoning, text := feedAll(s, []string{"a < b and ", "<thinking is not a tag>"})

	if reasoning != "" {
		t.Errorf("reasoning = %q, want empty", reasoning)
	}
	if text != "a < b and <thinking is not a tag>" {
		t.Errorf("text = %q", text)
	}
}

func TestReasoningSplitter_PreservesEveryCharacter(t *testing.T) {
	input := "<think>alpha beta</think> gamma <think>delta</think>epsilon"

	// Feed one byte at a time, the worst case for boundary handling.
	var chunks []string
	for i := 0; i < len(input); i++ {
		chunks = append(chunks, input[i:i+1])
	}

	s := NewReasoningSplitter("think")
	reasoning, text := feedAll(s, chunks)

	if reasoning != "alpha betadelta" {
		t.Errorf("reasoning = %q", reasoning)
	}
	if text != " gamma epsilon" {
		t.Errorf("text = %q", text)
	}

	stripped := strings.ReplaceAll(input, "<think>", "")
	stripped = strings.ReplaceAll(stripped, "</think>", "")
	if len(reasoning)+len(text) != len(stripped) {
		t.Errorf("character count mismatch: got %d, want %d", len(reasoning)+len(text), len(stripped))
	}
}

func TestNewReasoningSplitter_EmptyTag(t *testing.T) {
	if s := NewReasoningSplitter(""); s != nil {
		t.Error("expected nil splitter for empty tag")
	}
}
