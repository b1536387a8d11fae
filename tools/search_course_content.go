package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/petasbytes/course-rag/internal/store"
)

type SearchCourseContentInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content."`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title; partial names work (e.g. 'MCP', 'Introduction')."`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)."`
}

var SearchCourseContentInputSchema = GenerateSchema[SearchCourseContentInput]()

func SearchCourseContentDefinition(c Catalog) ToolDefinition {
	return ToolDefinition{
		Name:        "search_course_content",
		Description: "Search course materials for specific content, with optional course name and lesson filters.",
		InputSchema: SearchCourseContentInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			return searchCourseContent(ctx, c, input)
		},
	}
}

func searchCourseContent(ctx context.Context, c Catalog, input json.RawMessage) (string, error) {
	var in SearchCourseContentInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", errors.New("query is required")
	}

	q := store.Query{Text: in.Query, Lesson: in.LessonNumber}
	if in.CourseName != "" {
		title, err := c.ResolveCourse(ctx, in.CourseName)
		if errors.Is(err, store.ErrCourseNotFound) {
			return fmt.Sprintf("No course found matching '%s'", in.CourseName), nil
		}
		if err != nil {
			return "", err
		}
		q.Course = title
	}

	res, err := c.Search(ctx, q)
	if err != nil {
		return "", err
	}
	if res.Empty() {
		msg := "No relevant content found"
		if q.Course != "" {
			msg += fmt.Sprintf(" in course '%s'", q.Course)
		}
		if in.LessonNumber != nil {
			msg += fmt.Sprintf(" in lesson %d", *in.LessonNumber)
		}
		return msg + ".", nil
	}

	parts := make([]string, 0, len(res.Hits))
	sources := make([]Source, 0, len(res.Hits))
	for _, h := range res.Hits {
		label := h.CourseTitle
		if h.LessonNumber != nil {
			label += fmt.Sprintf(" - Lesson %d", *h.LessonNumber)
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s", label, h.Content))
		sources = append(sources, Source{Text: label, Link: h.LessonLink})
	}
	recordSources(ctx, sources...)
	return strings.Join(parts, "\n\n"), nil
}
