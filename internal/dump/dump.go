// Package dump serialises a process snapshot as YAML, JSON or HCL. The HCL
// form is a single `process` block that the loader reads back without any
// fragment.
package dump

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/specialistvlad/procgrid/internal/process"
	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatHCL  = "hcl"
)

// Formats returns the supported format names.
func Formats() []string {
	return []string{FormatYAML, FormatJSON, FormatHCL}
}

// Write encodes the snapshot in the given format. The output only depends
// on the snapshot contents.
func Write(w io.Writer, snap process.Snapshot, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatHCL:
		_, err := w.Write(encodeHCL(snap))
		return err
	default:
		return fmt.Errorf("unknown dump format %q, expected one of %v", format, Formats())
	}
}
