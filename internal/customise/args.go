package customise

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// arg decodes an optional argument into target. It reports whether the
// argument was present.
func arg(args map[string]cty.Value, name string, target any) (bool, error) {
	v, ok := args[name]
	if !ok || v.IsNull() {
		return false, nil
	}
	ty, err := gocty.ImpliedType(target)
	if err != nil {
		return false, fmt.Errorf("argument '%s': %w", name, err)
	}
	converted, err := convert.Convert(v, ty)
	if err != nil {
		return false, fmt.Errorf("argument '%s': %w", name, err)
	}
	if err := gocty.FromCtyValue(converted, target); err != nil {
		return false, fmt.Errorf("argument '%s': %w", name, err)
	}
	return true, nil
}

// requiredString decodes a string argument that must be present.
func requiredString(args map[string]cty.Value, name string) (string, error) {
	var s string
	ok, err := arg(args, name, &s)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", fmt.Errorf("missing required argument '%s'", name)
	}
	return s, nil
}
