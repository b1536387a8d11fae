package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/petasbytes/course-rag/internal/store"
	"github.com/petasbytes/course-rag/tools"
)

type fakeCatalog struct {
	courses   map[string]*store.Course
	hits      []store.Hit
	searchErr error
	lastQuery store.Query
}

func (f *fakeCatalog) Search(_ context.Context, q store.Query) (store.Results, error) {
	f.lastQuery = q
	return store.Results{Hits: f.hits}, f.searchErr
}

func (f *fakeCatalog) ResolveCourse(_ context.Context, name string) (string, error) {
	for title := range f.courses {
		if strings.Contains(strings.ToLower(title), strings.ToLower(name)) {
			return title, nil
		}
	}
	return "", store.ErrCourseNotFound
}

func (f *fakeCatalog) Course(_ context.Context, title string) (*store.Course, error) {
	c, ok := f.courses[title]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return c, nil
}

func intp(n int) *int { return &n }

func newCatalog() *fakeCatalog {
	return &fakeCatalog{courses: map[string]*store.Course{
		"MCP: Build Rich-Context AI Apps": {
			Title:      "MCP: Build Rich-Context AI Apps",
			Link:       "https://example.com/mcp",
			Instructor: "Elie Schoppik",
			Lessons: []store.Lesson{
				{Number: 0, Title: "Introduction"},
				{Number: 1, Title: "Why MCP"},
			},
		},
	}}
}

func exec(t *testing.T, r *tools.Registry, ctx context.Context, name string, args map[string]any) string {
	t.Helper()
	out, err := r.Execute(ctx, name, args)
	if err != nil {
		t.Fatalf("%s: unexpected err: %v", name, err)
	}
	return out
}

func TestGetCourseOutline_FormatsLessonsAndRecordsSource(t *testing.T) {
	r := tools.CourseRegistry(newCatalog())
	sink := tools.NewSourceSink()
	ctx := tools.WithSourceSink(context.Background(), sink)

	out := exec(t, r, ctx, "get_course_outline", map[string]any{"course_name": "mcp"})
	for _, want := range []string{
		"Course Title: MCP: Build Rich-Context AI Apps",
		"Course Link: https://example.com/mcp",
		"Course Instructor: Elie Schoppik",
		"Lessons (2):",
		"Lesson 0: Introduction",
		"Lesson 1: Why MCP",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("outline missing %q:\n%s", want, out)
		}
	}
	got := sink.Sources()
	if len(got) != 1 || got[0] != (tools.Source{Text: "MCP: Build Rich-Context AI Apps", Link: "https://example.com/mcp"}) {
		t.Fatalf("sources = %+v", got)
	}
}

func TestGetCourseOutline_UnknownCourseIsAnAnswer(t *testing.T) {
	r := tools.CourseRegistry(newCatalog())
	out := exec(t, r, context.Background(), "get_course_outline", map[string]any{"course_name": "Quantum Cooking"})
	if out != "No course found matching 'Quantum Cooking'" {
		t.Fatalf("out = %q", out)
	}
}

func TestGetCourseOutline_MissingCourseName(t *testing.T) {
	r := tools.CourseRegistry(newCatalog())
	if _, err := r.Execute(context.Background(), "get_course_outline", map[string]any{}); err == nil {
		t.Fatal("expected error for missing course_name")
	}
}

func TestSearchCourseContent_ResolvesCourseAndFormatsHits(t *testing.T) {
	cat := newCatalog()
	cat.hits = []store.Hit{
		{Content: "MCP standardizes context.", CourseTitle: "MCP: Build Rich-Context AI Apps", LessonNumber: intp(1), LessonLink: "https://example.com/mcp/1"},
		{Content: "Course overview.", CourseTitle: "MCP: Build Rich-Context AI Apps"},
	}
	r := tools.CourseRegistry(cat)
	sink := tools.NewSourceSink()
	ctx := tools.WithSourceSink(context.Background(), sink)

	out := exec(t, r, ctx, "search_course_content", map[string]any{"query": "what is mcp", "course_name": "MCP", "lesson_number": 1})
	if cat.lastQuery.Course != "MCP: Build Rich-Context AI Apps" || cat.lastQuery.Lesson == nil || *cat.lastQuery.Lesson != 1 {
		t.Fatalf("query not resolved: %+v", cat.lastQuery)
	}
	want := "[MCP: Build Rich-Context AI Apps - Lesson 1]\nMCP standardizes context.\n\n[MCP: Build Rich-Context AI Apps]\nCourse overview."
	if out != want {
		t.Fatalf("out =\n%s\nwant\n%s", out, want)
	}
	srcs := sink.Sources()
	if len(srcs) != 2 || srcs[0].Link != "https://example.com/mcp/1" || srcs[1].Text != "MCP: Build Rich-Context AI Apps" {
		t.Fatalf("sources = %+v", srcs)
	}
}

func TestSearchCourseContent_EmptyResults(t *testing.T) {
	r := tools.CourseRegistry(newCatalog())
	out := exec(t, r, context.Background(), "search_course_content", map[string]any{"query": "x", "course_name": "MCP", "lesson_number": 9})
	if out != "No relevant content found in course 'MCP: Build Rich-Context AI Apps' in lesson 9." {
		t.Fatalf("out = %q", out)
	}
}

func TestSearchCourseContent_StoreErrorFailsTool(t *testing.T) {
	cat := newCatalog()
	cat.searchErr = errors.New("database is locked")
	r := tools.CourseRegistry(cat)
	_, err := r.Execute(context.Background(), "search_course_content", map[string]any{"query": "x"})
	var te *tools.ToolExecutionError
	if !errors.As(err, &te) || te.Code != tools.CodeToolFailed {
		t.Fatalf("want ToolExecutionError(%s), got %v", tools.CodeToolFailed, err)
	}
}

func TestSearchCourseContent_RejectsWrongTypes(t *testing.T) {
	r := tools.CourseRegistry(newCatalog())
	_, err := r.Execute(context.Background(), "search_course_content", map[string]any{"query": "x", "lesson_number": "one"})
	if err == nil {
		t.Fatal("expected invalid input error")
	}
}

func TestSearchCourseContent_AgainstSQLiteStore(t *testing.T) {
	s, err := store.Open(":memory:", 2)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()
	if err := s.AddCourse(ctx, store.Course{Title: "Prompt Engineering", Lessons: []store.Lesson{{Number: 3, Title: "Chaining", Link: "https://example.com/pe/3"}}}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddChunks(ctx, []store.Chunk{{CourseTitle: "Prompt Engineering", LessonNumber: intp(3), Content: "Prompt chaining splits tasks into steps."}}); err != nil {
		t.Fatal(err)
	}

	out := exec(t, tools.CourseRegistry(s), ctx, "search_course_content", map[string]any{"query": "prompt chaining", "course_name": "prompt"})
	if !strings.HasPrefix(out, "[Prompt Engineering - Lesson 3]") {
		t.Fatalf("out = %q", out)
	}
}

func TestSourceSink_DedupesAndCopies(t *testing.T) {
	sink := tools.NewSourceSink()
	sink.Add(tools.Source{Text: "a"}, tools.Source{Text: "a"}, tools.Source{Text: "b", Link: "l"})
	got := sink.Sources()
	if len(got) != 2 {
		t.Fatalf("sources = %+v", got)
	}
	got[0].Text = "mutated"
	if sink.Sources()[0].Text != "a" {
		t.Fatal("Sources must return a copy")
	}
	b, _ := json.Marshal(sink.Sources())
	if string(b) != `[{"text":"a"},{"text":"b","link":"l"}]` {
		t.Fatalf("json = %s", b)
	}
	if _, ok := tools.SourceSinkFromContext(context.Background()); ok {
		t.Fatal("no sink expected on a bare context")
	}
}
