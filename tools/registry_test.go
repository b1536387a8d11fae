package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/petasbytes/course-rag/tools"
)

func echoTool(name string) tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        name,
		Description: "echo",
		Function: func(_ context.Context, input json.RawMessage) (string, error) {
			return string(input), nil
		},
	}
}

func TestRegistry_CourseToolNames(t *testing.T) {
	r := tools.CourseRegistry(&fakeCatalog{})
	want := []string{"get_course_outline", "search_course_content"}
	got := r.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("names = %v, want %v", got, want)
	}
	schemas := r.Schemas()
	if len(schemas) != 2 || schemas[0].Name != "search_course_content" {
		t.Fatalf("schemas should follow registration order: %+v", schemas)
	}
}

func TestRegistry_RejectsDuplicatesAndEmptyNames(t *testing.T) {
	if _, err := tools.NewRegistry(echoTool("a"), echoTool("a")); err == nil {
		t.Fatal("expected duplicate name error")
	}
	if _, err := tools.NewRegistry(echoTool("")); err == nil {
		t.Fatal("expected empty name error")
	}
	if _, err := tools.NewRegistry(tools.ToolDefinition{Name: "nil"}); err == nil {
		t.Fatal("expected nil handler error")
	}
}

func TestRegistry_ExecutePassesArgsAsJSON(t *testing.T) {
	r, err := tools.NewRegistry(echoTool("echo"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Execute(context.Background(), "echo", map[string]any{"query": "x"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != `{"query":"x"}` {
		t.Fatalf("out = %q", out)
	}
	if out, _ := r.Execute(context.Background(), "echo", nil); out != "{}" {
		t.Fatalf("nil args should encode as {}, got %q", out)
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r, _ := tools.NewRegistry()
	out, err := r.Execute(context.Background(), "nope", nil)
	var te *tools.ToolExecutionError
	if !errors.As(err, &te) || te.Code != tools.CodeToolNotFound {
		t.Fatalf("want ToolExecutionError(%s), got %v", tools.CodeToolNotFound, err)
	}
	if out != "" {
		t.Fatalf("failed call must not return partial output, got %q", out)
	}
}

func TestRegistry_ExecuteHandlerError(t *testing.T) {
	cause := errors.New("disk on fire")
	r, _ := tools.NewRegistry(tools.ToolDefinition{
		Name: "broken",
		Function: func(context.Context, json.RawMessage) (string, error) {
			return "half", cause
		},
	})
	out, err := r.Execute(context.Background(), "broken", map[string]any{})
	var te *tools.ToolExecutionError
	if !errors.As(err, &te) || te.Code != tools.CodeToolFailed || !errors.Is(err, cause) {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Fatalf("failed call must not return partial output, got %q", out)
	}
	if !strings.HasPrefix(err.Error(), "{") || !strings.Contains(err.Error(), "disk on fire") {
		t.Fatalf("error should be compact JSON with the message: %s", err)
	}
}

func TestGenerateSchema_RequiredFollowsOmitempty(t *testing.T) {
	s := tools.SearchCourseContentInputSchema
	if len(s.Required) != 1 || s.Required[0] != "query" {
		t.Fatalf("required = %v, want [query]", s.Required)
	}
	for _, k := range []string{"query", "course_name", "lesson_number"} {
		if _, ok := s.Properties[k]; !ok {
			t.Fatalf("missing property %q in %v", k, s.Properties)
		}
	}
	lesson := s.Properties["lesson_number"].(map[string]any)
	if lesson["type"] != "integer" {
		t.Fatalf("lesson_number type = %v", lesson["type"])
	}

	params := tools.Schema{Name: "x", Input: s}.Parameters()
	if params["type"] != "object" || params["additionalProperties"] != false {
		t.Fatalf("unexpected parameters: %v", params)
	}
}

func TestGenerateSchema_PlainMapsForNestedFields(t *testing.T) {
	type filter struct {
		Lesson int `json:"lesson"`
	}
	type input struct {
		Query  string  `json:"query" jsonschema:"description=What to find"`
		Filter *filter `json:"filter,omitempty"`
	}
	s := tools.GenerateSchema[input]()
	q, ok := s.Properties["query"].(map[string]any)
	if !ok || q["description"] != "What to find" {
		t.Fatalf("query property = %#v", s.Properties["query"])
	}
	f, ok := s.Properties["filter"].(map[string]any)
	if !ok {
		t.Fatalf("filter property = %#v", s.Properties["filter"])
	}
	if _, ok := f["properties"].(map[string]any); !ok {
		t.Fatalf("nested properties not a plain map: %#v", f)
	}
}
