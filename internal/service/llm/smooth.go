package llm

import "strings"

// WordSmoother re-chunks a text delta stream at word boundaries so clients
// receive whole words instead of arbitrary provider fragments. Only answer
// text is smoothed; reasoning, tool and data events pass through untouched.
// Concatenating the output always reproduces the input exactly.
type WordSmoother struct {
	buf strings.Builder
}

// NewWordSmoother returns a fresh smoother for one turn.
func NewWordSmoother() *WordSmoother {
	return &WordSmoother{}
}

// Feed appends a delta and returns complete words, each carrying its
// trailing whitespace. Text after the last whitespace stays buffered until
// the next boundary or Flush.
func (s *WordSmoother) Feed(delta string) []string {
	s.buf.WriteString(delta)
	text := s.buf.String()

	cut := strings.LastIndexAny(text, " \t\n")
	if cut < 0 {
		return nil
	}

	ready := text[:cut+1]
	s.buf.Reset()
	s.buf.WriteString(text[cut+1:])

	var words []string
	for len(ready) > 0 {
		end := strings.IndexAny(ready, " \t\n")
		words = append(words, ready[:end+1])
		ready = ready[end+1:]
	}
	return words
}

// Flush returns any buffered partial word at end of stream.
func (s *WordSmoother) Flush() string {
	out := s.buf.String()
	s.buf.Reset()
	return out
}
