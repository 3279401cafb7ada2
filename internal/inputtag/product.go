package inputtag

import (
	"fmt"
	"strings"
)

// Product identifies a data product held by an event or a run.
type Product struct {
	Type     string
	Label    string
	Instance string
	Process  string
}

// Branch returns the product's branch name, `type_label_instance_process`.
func (p Product) Branch() string {
	return p.Type + "_" + p.Label + "_" + p.Instance + "_" + p.Process
}

// Tag returns the fully qualified tag that refers to this product.
func (p Product) Tag() Tag {
	return Tag{Label: p.Label, Instance: p.Instance, Process: p.Process}
}

// ParseBranch parses a branch name back into a Product.
func ParseBranch(branch string) (Product, error) {
	parts := strings.Split(branch, "_")
	if len(parts) != 4 {
		return Product{}, fmt.Errorf("branch %q must have exactly four '_' separated parts", branch)
	}
	if parts[0] == "" || parts[1] == "" {
		return Product{}, fmt.Errorf("branch %q must name a type and a label", branch)
	}
	return Product{Type: parts[0], Label: parts[1], Instance: parts[2], Process: parts[3]}, nil
}

// Declaration is a product a stage promises to produce, written as `type`
// or `type:instance`.
type Declaration struct {
	Type     string
	Instance string
}

// ParseDeclaration parses a `type` or `type:instance` declaration.
func ParseDeclaration(raw string) (Declaration, error) {
	typ, instance, _ := strings.Cut(raw, ":")
	if typ == "" || strings.Contains(typ, "_") {
		return Declaration{}, fmt.Errorf("invalid product type in %q", raw)
	}
	if !partRegex.MatchString(instance) {
		return Declaration{}, fmt.Errorf("invalid product instance in %q", raw)
	}
	return Declaration{Type: typ, Instance: instance}, nil
}

// String returns the declaration in its source form.
func (d Declaration) String() string {
	if d.Instance == "" {
		return d.Type
	}
	return d.Type + ":" + d.Instance
}

// Product binds the declaration to a producing stage and process.
func (d Declaration) Product(label, process string) Product {
	return Product{Type: d.Type, Label: label, Instance: d.Instance, Process: process}
}
