// Package memory keeps per-session conversation history.
//
// Persistence model:
//   - Only text messages are stored (role + text). Tool blocks are transient
//     and never outlive a run.
//   - A session is an ordered list of messages; history handed to the model is
//     the last N user/assistant exchanges.
//   - Backends: in-process (MemStore), one JSON file per session (FileStore)
//     and database/sql on SQLite or PostgreSQL (SQLStore).
package memory
