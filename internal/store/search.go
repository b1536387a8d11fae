package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Query filters and ranks chunks. Course must be an exact stored title; use
// ResolveCourse first for user-supplied names.
type Query struct {
	Text   string
	Course string
	Lesson *int
	Limit  int
}

type Hit struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	LessonLink   string
	Score        float64
}

type Results struct {
	Hits []Hit
}

func (r Results) Empty() bool { return len(r.Hits) == 0 }

// Search returns up to Limit chunks (store default when zero) with a positive
// similarity to the query text, best first.
func (s *Store) Search(ctx context.Context, q Query) (Results, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		where []string
		args  []any
	)
	if q.Course != "" {
		where = append(where, "c.course_title = ?")
		args = append(args, q.Course)
	}
	if q.Lesson != nil {
		where = append(where, "c.lesson_number = ?")
		args = append(args, *q.Lesson)
	}
	stmt := `SELECT c.content, c.course_title, c.lesson_number, l.link, c.embedding
		FROM chunks c
		LEFT JOIN lessons l ON l.course_title = c.course_title AND l.number = c.lesson_number`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY c.course_title, c.lesson_number, c.chunk_index"

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	qv := Embed(q.Text)
	var hits []Hit
	for rows.Next() {
		var (
			h      Hit
			lesson sql.NullInt64
			link   sql.NullString
			blob   []byte
		)
		if err := rows.Scan(&h.Content, &h.CourseTitle, &lesson, &link, &blob); err != nil {
			return Results{}, fmt.Errorf("search: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return Results{}, fmt.Errorf("search: %w", err)
		}
		h.Score = Cosine(qv, vec)
		if h.Score <= 0 {
			continue
		}
		if lesson.Valid {
			n := int(lesson.Int64)
			h.LessonNumber = &n
		}
		h.LessonLink = link.String
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return Results{Hits: hits}, nil
}
