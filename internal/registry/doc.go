// Package registry provides the central "glue" between configuration and
// code.
//
// The Registry stores two kinds of entries. The first is the compiled Go side:
// plugins that implement stage behaviour and the customisation primitives.
// The second is the declarative side: fragments read from configuration
// files, and the eras, event contents, conditions aliases and composite
// customisations they define.
//
// Every lookup is by name and fails with a NameResolutionError when the name
// is absent. During startup the registry is populated and then validated to
// ensure that the fragments and the Go code are in sync, preventing a wide
// class of build-time surprises.
package registry
