package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/petasbytes/course-rag/internal/store"
)

type GetCourseOutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title; partial names work."`
}

var GetCourseOutlineInputSchema = GenerateSchema[GetCourseOutlineInput]()

func GetCourseOutlineDefinition(c Catalog) ToolDefinition {
	return ToolDefinition{
		Name:        "get_course_outline",
		Description: "Get a course's title, link, instructor and complete numbered lesson list.",
		InputSchema: GetCourseOutlineInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			return getCourseOutline(ctx, c, input)
		},
	}
}

func getCourseOutline(ctx context.Context, c Catalog, input json.RawMessage) (string, error) {
	var in GetCourseOutlineInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if strings.TrimSpace(in.CourseName) == "" {
		return "", errors.New("course_name is required")
	}

	title, err := c.ResolveCourse(ctx, in.CourseName)
	if errors.Is(err, store.ErrCourseNotFound) {
		return fmt.Sprintf("No course found matching '%s'", in.CourseName), nil
	}
	if err != nil {
		return "", err
	}
	course, err := c.Course(ctx, title)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course Title: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Course Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):", len(course.Lessons))
	for _, l := range course.Lessons {
		fmt.Fprintf(&b, "\nLesson %d: %s", l.Number, l.Title)
	}

	recordSources(ctx, Source{Text: course.Title, Link: course.Link})
	return b.String(), nil
}
