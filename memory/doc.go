// Package memory provides the long-lived memory store backing an agent's
// retrieval. Memories persist for the lifetime of the store; an optional
// vector index accelerates similarity search, with a linear scan as the
// default for small pools and tests.
package memory
