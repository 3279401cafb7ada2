// Package dag provides a small, concurrency-safe directed graph used to
// check that sequence nesting is acyclic and to order on-demand producers so
// that every stage runs after the stages whose products it consumes.
//
// All query results are sorted, so callers that walk the graph get the same
// answer on every run regardless of map iteration order.
package dag
