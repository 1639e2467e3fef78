// Package ports defines interfaces between layers in the hexagonal architecture.
// Service ports are implemented by the application layer and called by handlers.
// Store, bus, and client ports are implemented by adapters and called by the
// application layer and the workflow engine.
package ports
