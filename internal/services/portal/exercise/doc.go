// Package exercise manages IELTS exercises and their tasks.
//
// An exercise belongs to one module (Reading, Writing, Listening or
// Speaking) for its whole life and holds at least one task. Each task
// carries exactly one variant payload matching its task type.
package exercise
