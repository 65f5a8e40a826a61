// Package domain contains the core types of docdex: documentation
// sources, documents, passages and the search types built on them.
// It has no dependencies on adapters or infrastructure.
package domain
