// Package conditions resolves symbolic conditions tags into concrete global
// tags at build time.
//
// A requested tag of the form `auto:<alias>` is looked up in an alias
// catalog; any other tag is already concrete and passes through unchanged.
// Only the tag name is resolved here. Fetching calibration payloads is the
// job of the framework that consumes the configuration.
//
// Two catalogs are provided: StaticResolver, built from the aliases declared
// in configuration fragments plus a small built-in table, and Catalog, a
// SQLite-backed store whose schema is managed with embedded migrations. Chain
// combines several resolvers.
package conditions
