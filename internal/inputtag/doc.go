/*
Package inputtag provides structured, type-safe representations of the
identifiers used to refer to data products.

An input tag has the canonical format `label:instance:process`, where the
instance and process parts are optional (`label`, `label:instance`,
`label::process`). A product is identified by its branch name
`type_label_instance_process`, which is also the string that output commands
such as `keep *_offlinePrimaryVertices_*_*` are matched against.

This package centralizes all formatting, parsing and matching logic so the
assembler, the customisation primitives and the dry-run engine agree on it.
*/
package inputtag
