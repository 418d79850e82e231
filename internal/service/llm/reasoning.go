package llm

import "strings"

// Segment is one classified run of streamed text.
type Segment struct {
	Reasoning bool
	Text      string
}

// ReasoningSplitter separates reasoning content from answer content in a
// delta stream, driven by a model-specific tag pair such as <think> and
// </think>. Tags may arrive split across chunk boundaries; the splitter
// holds back the smallest suffix that could still become a tag. Every
// non-tag character of the input is emitted exactly once; the tags
// themselves are consumed.
type ReasoningSplitter struct {
	openTag  string
	closeTag string
	inside   bool
	pendingS string
}

// NewReasoningSplitter creates a splitter for the given tag name. An empty
// tag returns nil; callers treat a nil splitter as pass-through.
func NewReasoningSplitter(tag string) *ReasoningSplitter {
	if tag == "" {
		return nil
	}
	return &ReasoningSplitter{
		openTag:  "<" + tag + ">",
		closeTag: "</" + tag + ">",
	}
}

// Feed appends a delta and returns the segments that are now unambiguous.
func (s *ReasoningSplitter) Feed(delta string) []Segment {
	s.pendingS += delta

	var out []Segment
	for {
		tag := s.openTag
		if s.inside {
			tag = s.closeTag
		}

		idx := strings.Index(s.pendingS, tag)
		if idx >= 0 {
			if idx > 0 {
				out = appendSegment(out, Segment{Reasoning: s.inside, Text: s.pendingS[:idx]})
			}
			s.pendingS = s.pendingS[idx+len(tag):]
			s.inside = !s.inside
			continue
		}

		// No full tag. Hold back the longest suffix that is a prefix of
		// the tag we are looking for, emit the rest.
		hold := tagPrefixLen(s.pendingS, tag)
		emit := s.pendingS[:len(s.pendingS)-hold]
		if emit != "" {
			out = appendSegment(out, Segment{Reasoning: s.inside, Text: emit})
			s.pendingS = s.pendingS[len(emit):]
		}
		return out
	}
}

// Flush emits any held-back text at end of stream. A partial tag that never
// completed is emitted verbatim.
func (s *ReasoningSplitter) Flush() []Segment {
	if s.pendingS == "" {
		return nil
	}
	seg := Segment{Reasoning: s.inside, Text: s.pendingS}
	s.pendingS = ""
	return []Segment{seg}
}

// tagPrefixLen returns the length of the longest suffix of text that is a
// proper prefix of tag.
func tagPrefixLen(text, tag string) int {
	max := len(tag) - 1
	if max > len(text) {
		max = len(text)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(text, tag[:n]) {
			return n
		}
	}
	return 0
}

// appendSegment merges adjacent segments of the same kind.
func appendSegment(segs []Segment, seg Segment) []Segment {
	if n := len(segs); n > 0 && segs[n-1].Reasoning == seg.Reasoning {
		segs[n-1].Text += seg.Text
		return segs
	}
	return append(segs, seg)
}
