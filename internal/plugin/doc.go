// Package plugin defines the contract between stage definitions and the Go
// code that implements their behaviour in the dry-run engine.
//
// A plugin is registered under the name stages use in their `plugin`
// attribute. Its Registered value declares the stage kind it implements, the
// parameters it understands together with their cty types, and a
// constructor. The constructor returns one of Producer, Filter, Analyzer or
// Output, matching the declared kind.
package plugin
