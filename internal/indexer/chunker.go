package indexer

import (
	"fmt"
	"regexp"
)

// Ordered separator list for Portuguese regulatory texts, coarsest to
// finest. Paragraph breaks first, then legal-unit headers so chunks cut
// along article/chapter/section boundaries whenever possible, then plain
// line, sentence and word breaks.
var structuralSeparators = []*regexp.Regexp{
	regexp.MustCompile(`\n\n+`),
	regexp.MustCompile(`\nArtigo\s+\d+`),
	regexp.MustCompile(`\nArt\.\s+\d+`),
	regexp.MustCompile(`\nCAPÍTULO\s+[IVX]+`),
	regexp.MustCompile(`\nCAPÍTULO\s+\d+`),
	regexp.MustCompile(`\nSECÇÃO\s+[IVX]+`),
	regexp.MustCompile(`\nSECÇÃO\s+\d+`),
	regexp.MustCompile(`\n`),
	regexp.MustCompile(`\. `),
	regexp.MustCompile(` `),
}

// StructuralSplitter splits extracted text into bounded, overlapping
// chunks along legal-structure-aware boundaries. Sizes are measured in
// runes, not bytes.
type StructuralSplitter struct {
	chunkSize int
	overlap   int
	// pieceSize bounds the recursive split so that the overlap prefix
	// never pushes an assembled chunk past chunkSize.
	pieceSize int
}

// NewStructuralSplitter creates a splitter with target chunk size and
// overlap, requiring 0 <= overlap < chunkSize.
func NewStructuralSplitter(chunkSize, overlap int) (*StructuralSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < chunk size, got %d", overlap)
	}
	return &StructuralSplitter{
		chunkSize: chunkSize,
		overlap:   overlap,
		pieceSize: chunkSize - overlap,
	}, nil
}

// Split chunks the text. Empty input yields an empty slice, which the
// caller must treat as an ingestion failure. Input that fits the chunk
// size yields exactly one chunk. Every chunk after the first is prefixed
// with the trailing overlap runes of the previous chunk, so a unit
// spanning a size boundary or an original page break is not truncated.
func (s *StructuralSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= s.chunkSize {
		return []string{text}
	}
	return s.assemble(s.splitRecursive(text, 0))
}

// splitRecursive splits text with the coarsest separator that splits it
// at all; pieces still over the bound are re-split with the next finer
// separator. A finer separator is never used on a piece a coarser one
// already brought within bounds. A piece no separator can split is
// returned as-is: the documented indivisible-unit exception.
func (s *StructuralSplitter) splitRecursive(text string, sepIdx int) []string {
	if len([]rune(text)) <= s.pieceSize {
		return []string{text}
	}

	for ; sepIdx < len(structuralSeparators); sepIdx++ {
		parts := splitBefore(text, structuralSeparators[sepIdx])
		if len(parts) <= 1 {
			continue
		}
		var out []string
		for _, part := range parts {
			if len([]rune(part)) <= s.pieceSize {
				out = append(out, part)
			} else {
				out = append(out, s.splitRecursive(part, sepIdx+1)...)
			}
		}
		return out
	}

	return []string{text}
}

// splitBefore splits text at the start of every separator match, so a
// matched header stays attached to the text it introduces. The pieces
// concatenate back to the original text exactly.
func splitBefore(text string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var parts []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			parts = append(parts, text[prev:loc[0]])
			prev = loc[0]
		}
	}
	if prev < len(text) {
		parts = append(parts, text[prev:])
	}
	return parts
}

// assemble merges pieces into chunks of at most chunkSize runes, seeding
// each chunk after the first with the trailing overlap runes of its
// predecessor.
func (s *StructuralSplitter) assemble(pieces []string) []string {
	var chunks []string
	var cur []rune

	for _, piece := range pieces {
		runes := []rune(piece)
		if len(cur) == 0 {
			cur = append(cur, runes...)
			continue
		}
		if len(cur)+len(runes) <= s.chunkSize {
			cur = append(cur, runes...)
			continue
		}

		chunks = append(chunks, string(cur))

		seed := cur
		if s.overlap > 0 {
			if len(seed) > s.overlap {
				seed = seed[len(seed)-s.overlap:]
			}
			cur = append(append([]rune(nil), seed...), runes...)
		} else {
			cur = append([]rune(nil), runes...)
		}
	}
	if len(cur) > 0 {
		chunks = append(chunks, string(cur))
	}
	return chunks
}
