// Package driving provides interfaces through which external actors
// (CLI, MCP clients) drive the core services (primary/inbound ports).
package driving
