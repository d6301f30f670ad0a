// Package ports defines the boundary interfaces of the call engine.
// The core depends only on these contracts; adapters under
// internal/adapters provide the concrete collaborators (AI provider,
// outbound HTTP, telephony control, graph sources, state stores).
package ports
