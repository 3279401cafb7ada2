package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/procgrid/internal/config"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	env map[string]string
}

// NewLoader creates a new HCL configuration loader. Expressions see env as
// the `env` variable; a nil env exposes the process environment.
func NewLoader(env map[string]string) *Loader {
	if env == nil {
		env = environ()
	}
	return &Loader{env: env}
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// Load orchestrates the entire HCL configuration loading process. Every
// `.hcl` file found under paths is parsed; fragments from all files are
// collected in file order, and at most one process block may exist overall.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext(l.env)
	model := &config.Model{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, fb := range root.Fragments {
			f, err := translateFragment(fb, file, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("in file %s: %w", file, err)
			}
			model.Fragments = append(model.Fragments, f)
		}
		for _, pb := range root.Processes {
			if model.Process != nil {
				return nil, errs.Invalid("only one process block is allowed, found %q in %s and %q in %s",
					model.Process.Name, model.Process.SourceFile, pb.Name, file)
			}
			p, err := translateProcess(pb, file, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("in file %s: %w", file, err)
			}
			model.Process = p
		}
		logger.Debug("Loaded HCL file.", "file", file, "fragments", len(root.Fragments), "processes", len(root.Processes))
	}

	logger.Debug("HCL loading complete.", "fragments", len(model.Fragments), "has_process", model.Process != nil)
	return model, nil
}

// diagsError turns diagnostics into an error, or nil when there are no
// errors among them.
func diagsError(diags hcl.Diagnostics) error {
	if diags.HasErrors() {
		return diags
	}
	return nil
}
