// Package config defines the format-agnostic declaration model of a
// configuration, along with the Loader interface for reading it from a
// concrete source.
//
// Declarations are fully evaluated: parameter values are go-cty values and
// every reference is still a plain label. Resolving labels into objects is
// the job of the registry and the assembler. The HCL implementation of the
// Loader lives in a separate package.
package config
