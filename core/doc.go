// Package core defines the shared data model of the orchestrator: the
// per-user SessionState threaded through every workflow node, the Decision
// union produced by the reasoning loop, the MemoryItem shape written to the
// vector store, and the external collaborator contracts (vector store, web
// search, image description).
//
// The package depends only on logging; every other package depends on core.
package core
