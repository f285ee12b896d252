// Package core defines the shared data model for a turn: conversation
// messages, tool call records and the TurnState threaded through one
// orchestration run. It has no dependencies on the graph, registry or any
// collaborator so every other package can import it freely.
package core
