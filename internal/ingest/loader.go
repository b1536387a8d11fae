package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petasbytes/course-rag/internal/safety"
	"github.com/petasbytes/course-rag/internal/store"
)

// Index is the slice of the store the loader writes through.
type Index interface {
	HasCourse(ctx context.Context, title string) (bool, error)
	AddCourse(ctx context.Context, c store.Course) error
	AddChunks(ctx context.Context, chunks []store.Chunk) error
	Clear(ctx context.Context) error
}

// Loader reads course documents from a folder into an Index.
type Loader struct {
	Index        Index
	ChunkSize    int
	ChunkOverlap int
	Logger       zerolog.Logger
}

// Result summarizes one folder load.
type Result struct {
	Courses int
	Chunks  int
	Skipped []string
}

var documentExts = map[string]struct{}{".txt": {}, ".md": {}}

// LoadFolder ingests every .txt and .md file directly under dir. Courses
// already present are skipped unless clear is set, in which case the index is
// emptied first. A file that fails to load is logged and skipped.
func (l *Loader) LoadFolder(ctx context.Context, dir string, clear bool) (Result, error) {
	var res Result
	root, err := safety.InitRoot(dir)
	if err != nil {
		return res, err
	}
	fi, err := os.Stat(root)
	if err != nil {
		return res, fmt.Errorf("load folder: %w", err)
	}
	if !fi.IsDir() {
		return res, safety.PathError{Code: safety.CodeNotAFile, Message: "docs path is not a directory"}
	}

	if clear {
		if err := l.Index.Clear(ctx); err != nil {
			return res, err
		}
	}

	names, err := listDocuments(root)
	if err != nil {
		return res, err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := l.loadFile(ctx, root, name)
		switch {
		case errors.Is(err, store.ErrCourseExists):
			res.Skipped = append(res.Skipped, name)
		case err != nil:
			l.Logger.Warn().Err(err).Str("file", name).Msg("skipping course document")
			res.Skipped = append(res.Skipped, name)
		default:
			res.Courses++
			res.Chunks += n
		}
	}
	l.Logger.Info().
		Str("dir", root).
		Int("courses", res.Courses).
		Int("chunks", res.Chunks).
		Int("skipped", len(res.Skipped)).
		Msg("course folder loaded")
	return res, nil
}

func (l *Loader) loadFile(ctx context.Context, root, rel string) (int, error) {
	content, err := readDocument(root, rel)
	if err != nil {
		return 0, err
	}
	doc, err := Parse(rel, content)
	if err != nil {
		return 0, err
	}
	exists, err := l.Index.HasCourse(ctx, doc.Course.Title)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("%s: %w", doc.Course.Title, store.ErrCourseExists)
	}
	if err := l.Index.AddCourse(ctx, doc.Course); err != nil {
		return 0, err
	}
	chunks := doc.Chunks(l.ChunkSize, l.ChunkOverlap)
	if err := l.Index.AddChunks(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// listDocuments returns the document file names directly under root, sorted.
func listDocuments(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := documentExts[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// readDocument reads a file addressed relative to root, refusing anything that
// resolves outside it.
func readDocument(root, rel string) (string, error) {
	abs, err := safety.ValidateRelPath(root, rel)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", safety.PathError{Code: safety.CodeNotAFile, Message: "path is a directory"}
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
