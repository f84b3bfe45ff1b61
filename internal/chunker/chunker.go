// Package chunker splits raw text into overlapping, size-bounded
// segments and derives deterministic chunk identifiers.
//
// Chunks are the atomic unit of retrieval: each one is embedded and
// stored as a vector record. Identifiers are content hashes, so
// re-ingesting unchanged text produces identical ids and upserts
// overwrite in place instead of duplicating.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// DefaultTargetSize is the soft upper bound on a chunk's rendered
	// length in bytes.
	DefaultTargetSize = 1000

	// DefaultOverlap controls the soft overlap carried from the tail of
	// the previous chunk: the last DefaultOverlap/5 words are repeated.
	DefaultOverlap = 120

	// idPrefixLen is how many leading characters of the chunk text
	// participate in the id hash.
	idPrefixLen = 80
)

// Split chunks text with the default target size and overlap.
func Split(text string) []string {
	return SplitSize(text, DefaultTargetSize, DefaultOverlap)
}

// SplitSize splits text on whitespace and greedily accumulates words
// until appending the next word would push the rendered chunk past
// target bytes. The emitted chunk's trailing overlap/5 words seed the
// next buffer to preserve cross-boundary context.
//
// The bound is soft: a single word longer than target is emitted as its
// own chunk, never truncated. The final non-empty buffer is always
// emitted. Empty input yields no chunks.
func SplitSize(text string, target, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	overlapWords := overlap / 5
	var out []string
	var buf []string
	bufLen := 0 // rendered length of strings.Join(buf, " ")

	for _, w := range words {
		if len(buf) > 0 && bufLen+len(w)+1 > target {
			chunk := strings.Join(buf, " ")
			out = append(out, chunk)

			tail := buf
			if len(tail) > overlapWords {
				tail = tail[len(tail)-overlapWords:]
			}
			if overlapWords <= 0 {
				tail = nil
			}
			buf = append([]string(nil), tail...)
			bufLen = len(strings.Join(buf, " "))
		}
		if len(buf) > 0 {
			bufLen++ // joining space
		}
		buf = append(buf, w)
		bufLen += len(w)
	}

	if len(buf) > 0 {
		out = append(out, strings.Join(buf, " "))
	}
	return out
}

// Hash returns the lowercase hex SHA-256 digest of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ChunkID derives the deterministic vector-record id for a chunk:
// a hash of the saint slug, the chunk's sequence index, and the first
// 80 characters of its text. Identical content always yields the same
// id, making re-ingestion idempotent.
func ChunkID(slug string, idx int, text string) string {
	prefix := text
	if runes := []rune(prefix); len(runes) > idPrefixLen {
		prefix = string(runes[:idPrefixLen])
	}
	return Hash(fmt.Sprintf("%s-%d-%s", slug, idx, prefix))
}
