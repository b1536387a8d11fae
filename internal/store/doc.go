// Package store is the course catalog and chunk index backing retrieval.
//
// Courses, lessons and text chunks live in SQLite. Each chunk carries a
// feature-hashed term vector; Search ranks chunks by cosine similarity against
// the query vector after filtering by course and lesson.
package store
