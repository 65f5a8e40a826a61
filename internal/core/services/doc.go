// Package services implements the core application services: the query
// engine answering searches against the vector index, the ingestion
// pipeline that populates it, and corpus introspection.
package services
