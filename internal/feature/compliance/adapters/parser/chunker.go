package parser

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters consecutive chunks may share.
	DefaultChunkOverlap = 200
)

// newSplitter builds a recursive splitter that tries paragraph, line, word
// and finally character boundaries.
func newSplitter(size, overlap int) textsplitter.TextSplitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)
}

// SplitText splits text into chunks of at most size characters, preferring
// paragraph boundaries.
func SplitText(text string, size, overlap int) ([]string, error) {
	return splitWith(newSplitter(size, overlap), text)
}

func splitWith(s textsplitter.TextSplitter, text string) ([]string, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil, nil
	}
	parts, err := s.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
