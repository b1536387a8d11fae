// Package tools defines the tool contract and the course retrieval tools.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Registry: name -> definition lookup; implements the runner's executor.
//   - Course tools: search_course_content, get_course_outline.
//   - SourceSink: per-request citations recorded by tools, carried on the context.
package tools
