package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAMLLoader reads flag values from a YAML document. Keys are flag names
// with dashes or underscores; command flags may be nested under the command
// path, for example:
//
//	server: https://agency.example.com
//	policies:
//	  renewal:
//	    provider: anthropic
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var root *yaml.Node
	if len(doc.Content) > 0 {
		root = doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("failed to parse config: top level must be a mapping")
		}
	}

	return kong.ResolverFunc(func(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		scope := root
		if parent != nil && parent.Command != nil {
			for _, name := range commandPath(parent.Command) {
				scope = lookup(scope, name)
				if scope == nil || scope.Kind != yaml.MappingNode {
					scope = nil
					break
				}
			}
		}

		v := lookup(scope, flag.Name)
		if v == nil {
			// fall back to a top level key
			v = lookup(root, flag.Name)
		}
		if v == nil || v.ShortTag() == "!!null" {
			return nil, nil
		}
		return scalar(v), nil
	}), nil
}

func commandPath(cmd *kong.Node) []string {
	var path []string
	for n := cmd; n != nil && n.Type == kong.CommandNode; n = n.Parent {
		path = append([]string{n.Name}, path...)
	}
	return path
}

// lookup returns the value of name in the mapping m.
func lookup(m *yaml.Node, name string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	alt := strings.ReplaceAll(name, "-", "_")
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i].Value; k == name || k == alt {
			return m.Content[i+1]
		}
	}
	return nil
}

// scalar returns the literal text kong's mappers parse. Sequences are joined
// with commas.
func scalar(n *yaml.Node) string {
	switch n.Kind {
	case yaml.AliasNode:
		return scalar(n.Alias)
	case yaml.SequenceNode:
		parts := make([]string, len(n.Content))
		for i, c := range n.Content {
			parts[i] = scalar(c)
		}
		return strings.Join(parts, ",")
	default:
		return n.Value
	}
}
