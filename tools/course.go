package tools

import (
	"context"

	"github.com/petasbytes/course-rag/internal/store"
)

// Catalog is the read side of the course store the course tools query.
type Catalog interface {
	Search(ctx context.Context, q store.Query) (store.Results, error)
	ResolveCourse(ctx context.Context, name string) (string, error)
	Course(ctx context.Context, title string) (*store.Course, error)
}

// CourseRegistry returns a registry with the course tools bound to c.
func CourseRegistry(c Catalog) *Registry {
	r, err := NewRegistry(SearchCourseContentDefinition(c), GetCourseOutlineDefinition(c))
	if err != nil {
		// Names are fixed and distinct.
		panic(err)
	}
	return r
}
