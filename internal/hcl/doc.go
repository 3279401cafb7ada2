// Package hcl provides the concrete HCL implementation of the configuration
// Loader defined in the `config` package. It is responsible for file
// discovery, parsing, expression evaluation and the translation of decoded
// blocks into the format-agnostic model.
package hcl
