// Package chunker splits extracted document text into overlapping chunks
// sized for embedding.
package chunker

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
)

// Splitter cuts text into chunks of at most Size runes, each chunk starting
// Overlap runes before the end of the previous one. Cuts prefer paragraph,
// then line, then sentence, then word boundaries, and fall back to a hard
// character cut when no boundary exists within the window.
type Splitter struct {
	Size    int
	Overlap int
}

// New returns a Splitter, substituting defaults for out-of-range values.
// Overlap must stay below Size for the splitter to make progress.
func New(size, overlap int) Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return Splitter{Size: size, Overlap: overlap}
}

// Split returns the ordered chunks covering text. Empty input yields nil,
// input shorter than Size yields exactly one chunk containing it verbatim.
func (s Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= s.Size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + s.Size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		if cut := s.boundary(runes, start, end); cut > 0 {
			end = cut
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.Overlap
	}
	return chunks
}

// boundary finds the latest preferred cut point in (start+Overlap, end].
// The lower bound keeps every chunk longer than the overlap, which is what
// guarantees termination. Returns 0 when only a hard cut is possible.
func (s Splitter) boundary(runes []rune, start, end int) int {
	min := start + s.Overlap + 1
	if min >= end {
		return 0
	}
	for i := end; i > min; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	for i := end; i > min; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := end; i > min; i-- {
		if isSpace(runes[i-1]) && isSentenceEnd(runes[i-2]) {
			return i
		}
	}
	for i := end; i > min; i-- {
		if isSpace(runes[i-1]) {
			return i
		}
	}
	return 0
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
