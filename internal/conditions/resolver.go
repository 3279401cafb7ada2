package conditions

import (
	"context"
	"errors"
	"strings"

	"github.com/specialistvlad/procgrid/internal/errs"
)

// AliasPrefix marks a requested tag as a symbolic alias.
const AliasPrefix = "auto:"

// Resolved is the outcome of resolving a requested tag.
type Resolved struct {
	Requested string
	// Alias is set when the requested tag was symbolic.
	Alias string
	Tag   string
}

// Resolver maps a requested conditions tag to a concrete global tag.
type Resolver interface {
	Resolve(ctx context.Context, requested string) (Resolved, error)
}

// SplitAlias returns the alias of a symbolic tag and whether the tag was
// symbolic.
func SplitAlias(requested string) (string, bool) {
	return strings.CutPrefix(requested, AliasPrefix)
}

// BuiltinAliases is the alias table used when no catalog overrides it.
var BuiltinAliases = map[string]string{
	"run3_data":               "140X_dataRun3_v4",
	"run3_data_prompt":        "140X_dataRun3_Prompt_v3",
	"run3_data_prompt_relval": "140X_dataRun3_Prompt_relval_v2",
	"run3_data_express":       "140X_dataRun3_Express_v3",
	"run3_hlt_relval":         "140X_dataRun3_HLT_relval_v2",
	"phase1_2023_realistic":   "140X_mcRun3_2023_realistic_v3",
}

// StaticResolver resolves aliases from an in-memory table.
type StaticResolver struct {
	aliases map[string]string
}

// NewStaticResolver creates a resolver from BuiltinAliases overlaid with
// the given aliases.
func NewStaticResolver(aliases map[string]string) *StaticResolver {
	all := make(map[string]string, len(BuiltinAliases)+len(aliases))
	for k, v := range BuiltinAliases {
		all[k] = v
	}
	for k, v := range aliases {
		all[k] = v
	}
	return &StaticResolver{aliases: all}
}

// Resolve implements Resolver.
func (s *StaticResolver) Resolve(_ context.Context, requested string) (Resolved, error) {
	return resolveWith(requested, func(alias string) (string, bool, error) {
		tag, ok := s.aliases[alias]
		return tag, ok, nil
	})
}

// resolveWith handles pass-through and error shaping around a lookup.
func resolveWith(requested string, lookup func(alias string) (string, bool, error)) (Resolved, error) {
	if requested == "" {
		return Resolved{}, errs.Invalid("conditions global tag cannot be empty")
	}
	alias, symbolic := SplitAlias(requested)
	if !symbolic {
		return Resolved{Requested: requested, Tag: requested}, nil
	}
	tag, ok, err := lookup(alias)
	if err != nil {
		return Resolved{}, err
	}
	if !ok {
		return Resolved{}, errs.Unresolved("conditions alias", alias, "conditions")
	}
	return Resolved{Requested: requested, Alias: alias, Tag: tag}, nil
}

// Chain tries each resolver in order and returns the first successful
// resolution. Only name-resolution failures fall through to the next
// resolver; any other error is returned immediately.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, requested string) (Resolved, error) {
	var last error = errs.Unresolved("conditions alias", requested, "conditions")
	for _, r := range c {
		res, err := r.Resolve(ctx, requested)
		if err == nil {
			return res, nil
		}
		var nre *errs.NameResolutionError
		if !errors.As(err, &nre) {
			return Resolved{}, err
		}
		last = err
	}
	return Resolved{}, last
}
