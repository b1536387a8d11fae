package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Chunk is one indexed slice of lesson text. LessonNumber is nil for
// course-level text that precedes the first lesson marker.
type Chunk struct {
	CourseTitle  string
	LessonNumber *int
	Index        int
	Content      string
}

// AddCourse records a course and its lessons. A course with the same title
// already present yields ErrCourseExists.
func (s *Store) AddCourse(ctx context.Context, c Course) error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("add course: empty title")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add course: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses WHERE title = ?", c.Title).Scan(&n); err != nil {
		return fmt.Errorf("add course: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("add course %q: %w", c.Title, ErrCourseExists)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO courses (title, link, instructor) VALUES (?, ?, ?)",
		c.Title, c.Link, c.Instructor); err != nil {
		return fmt.Errorf("add course: %w", err)
	}
	for _, l := range c.Lessons {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO lessons (course_title, number, title, link) VALUES (?, ?, ?, ?)",
			c.Title, l.Number, l.Title, l.Link); err != nil {
			return fmt.Errorf("add lesson %d: %w", l.Number, err)
		}
	}
	return tx.Commit()
}

// AddChunks embeds and stores chunks. Re-adding a chunk with the same course,
// lesson and index replaces it.
func (s *Store) AddChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO chunks
		(id, course_title, lesson_number, chunk_index, content, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		var lesson sql.NullInt64
		if c.LessonNumber != nil {
			lesson = sql.NullInt64{Int64: int64(*c.LessonNumber), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			chunkID(c.CourseTitle, c.LessonNumber, c.Index),
			c.CourseTitle, lesson, c.Index, c.Content, encodeVector(Embed(c.Content))); err != nil {
			return fmt.Errorf("add chunk %d of %q: %w", c.Index, c.CourseTitle, err)
		}
	}
	return tx.Commit()
}

// Course returns the outline of the course with exactly this title.
func (s *Store) Course(ctx context.Context, title string) (*Course, error) {
	c := &Course{Title: title}
	var link, instructor sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT link, instructor FROM courses WHERE title = ?", title).Scan(&link, &instructor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %q: %w", title, ErrCourseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("course %q: %w", title, err)
	}
	c.Link, c.Instructor = link.String, instructor.String

	rows, err := s.db.QueryContext(ctx,
		"SELECT number, title, link FROM lessons WHERE course_title = ? ORDER BY number", title)
	if err != nil {
		return nil, fmt.Errorf("lessons of %q: %w", title, err)
	}
	defer rows.Close()
	for rows.Next() {
		var l Lesson
		var ll sql.NullString
		if err := rows.Scan(&l.Number, &l.Title, &ll); err != nil {
			return nil, err
		}
		l.Link = ll.String
		c.Lessons = append(c.Lessons, l)
	}
	return c, rows.Err()
}

// CourseTitles lists every course title in alphabetical order.
func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT title FROM courses ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("course titles: %w", err)
	}
	defer rows.Close()
	titles := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

func (s *Store) CourseCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&n); err != nil {
		return 0, fmt.Errorf("course count: %w", err)
	}
	return n, nil
}

func (s *Store) HasCourse(ctx context.Context, title string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses WHERE title = ?", title).Scan(&n); err != nil {
		return false, fmt.Errorf("has course: %w", err)
	}
	return n > 0, nil
}

// ResolveCourse maps a possibly partial or misspelled course name to a stored
// title: case-insensitive equality first, then fuzzy subsequence matching,
// then the most similar title vector.
func (s *Store) ResolveCourse(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("resolve course: empty name: %w", ErrCourseNotFound)
	}
	titles, err := s.CourseTitles(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range titles {
		if strings.EqualFold(t, name) {
			return t, nil
		}
	}
	if matches := fuzzy.Find(name, titles); len(matches) > 0 {
		return titles[matches[0].Index], nil
	}

	q := Embed(name)
	best, bestScore := "", 0.0
	for _, t := range titles {
		if score := Cosine(q, Embed(t)); score > bestScore {
			best, bestScore = t, score
		}
	}
	if best == "" {
		return "", fmt.Errorf("resolve course %q: %w", name, ErrCourseNotFound)
	}
	return best, nil
}
