package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/petasbytes/course-rag/internal/store"
)

// SplitSentences breaks text at '.', '!' or '?' followed by whitespace.
// Whitespace inside sentences is collapsed to single spaces.
func SplitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ChunkText packs whole sentences into chunks of at most size characters
// (a single longer sentence becomes its own chunk). Consecutive chunks share
// trailing sentences totalling at most overlap characters, and every chunk
// starts at least one sentence after the previous one.
func ChunkText(text string, size, overlap int) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	if size <= 0 {
		return []string{strings.Join(sentences, " ")}
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(sentences); {
		end, length := start, 0
		for end < len(sentences) {
			add := len(sentences[end])
			if end > start {
				add++
			}
			if length+add > size && end > start {
				break
			}
			length += add
			end++
		}
		chunks = append(chunks, strings.Join(sentences[start:end], " "))
		if end >= len(sentences) {
			break
		}

		next, kept := end, 0
		for next-1 > start {
			l := len(sentences[next-1])
			if kept > 0 {
				l++
			}
			if kept+l > overlap {
				break
			}
			kept += l
			next--
		}
		start = next
	}
	return chunks
}

// Chunks converts a parsed document into store chunks. The first chunk of each
// lesson is prefixed with its course and lesson so it stays self-describing.
func (d *Document) Chunks(size, overlap int) []store.Chunk {
	var out []store.Chunk
	idx := 0
	if d.Preface != "" {
		for _, c := range ChunkText(d.Preface, size, overlap) {
			out = append(out, store.Chunk{CourseTitle: d.Course.Title, Index: idx, Content: c})
			idx++
		}
	}
	for _, l := range d.Course.Lessons {
		n := l.Number
		for i, c := range ChunkText(d.Bodies[n], size, overlap) {
			if i == 0 {
				c = fmt.Sprintf("Course %s Lesson %d content: %s", d.Course.Title, n, c)
			}
			out = append(out, store.Chunk{CourseTitle: d.Course.Title, LessonNumber: &n, Index: idx, Content: c})
			idx++
		}
	}
	return out
}
