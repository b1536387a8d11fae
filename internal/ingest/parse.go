// Package ingest turns course documents into catalog entries and chunks.
package ingest

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/petasbytes/course-rag/internal/store"
)

// Document is a parsed course file: course metadata plus raw lesson bodies.
type Document struct {
	Course  store.Course
	Bodies  map[int]string
	Preface string
}

const (
	prefixTitle      = "course title:"
	prefixLink       = "course link:"
	prefixInstructor = "course instructor:"
	prefixLessonLink = "lesson link:"
)

// Parse reads the course document format:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
//	Lesson 1: <lesson title>
//	Lesson Link: <url>
//	<lesson text...>
//
// Header lines are optional; a missing title falls back to the file name
// without its extension. Text before the first lesson marker becomes Preface.
func Parse(name, content string) (*Document, error) {
	doc := &Document{Bodies: map[int]string{}}
	var (
		current  = -1
		body     strings.Builder
		preface  strings.Builder
		expectLL bool
	)
	flush := func() {
		if current >= 0 {
			doc.Bodies[current] = strings.TrimSpace(body.String())
		}
		body.Reset()
	}

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if current < 0 {
			switch {
			case strings.HasPrefix(lower, prefixTitle):
				doc.Course.Title = strings.TrimSpace(trimmed[len(prefixTitle):])
				continue
			case strings.HasPrefix(lower, prefixLink):
				doc.Course.Link = strings.TrimSpace(trimmed[len(prefixLink):])
				continue
			case strings.HasPrefix(lower, prefixInstructor):
				doc.Course.Instructor = strings.TrimSpace(trimmed[len(prefixInstructor):])
				continue
			}
		}

		if n, title, ok := lessonMarker(trimmed); ok {
			flush()
			current = n
			doc.Course.Lessons = append(doc.Course.Lessons, store.Lesson{Number: n, Title: title})
			expectLL = true
			continue
		}
		if expectLL && strings.HasPrefix(lower, prefixLessonLink) {
			doc.Course.Lessons[len(doc.Course.Lessons)-1].Link = strings.TrimSpace(trimmed[len(prefixLessonLink):])
			expectLL = false
			continue
		}
		if trimmed != "" {
			expectLL = false
		}

		if current < 0 {
			preface.WriteString(line)
			preface.WriteByte('\n')
		} else {
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	flush()

	if doc.Course.Title == "" {
		doc.Course.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	doc.Preface = strings.TrimSpace(preface.String())
	return doc, nil
}

// lessonMarker matches "Lesson <n>: <title>" case-insensitively.
func lessonMarker(line string) (int, string, bool) {
	const kw = "lesson "
	if len(line) <= len(kw) || !strings.EqualFold(line[:len(kw)], kw) {
		return 0, "", false
	}
	rest := line[len(kw):]
	colon := strings.IndexByte(rest, ':')
	if colon <= 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest[:colon]))
	if err != nil || n < 0 {
		return 0, "", false
	}
	return n, strings.TrimSpace(rest[colon+1:]), true
}
