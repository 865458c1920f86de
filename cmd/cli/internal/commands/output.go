package commands

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/wolfeidau/agencyctl/internal/table"
	"gopkg.in/yaml.v3"
)

// ListFlags controls sorting, filtering and paging of list output.
type ListFlags struct {
	Filter   string   `help:"Free text filter." short:"f"`
	Sort     []string `help:"Sort by column key, prefix with - for descending. Repeat for multi column sort." short:"s"`
	Where    []string `help:"Column filter as key=value[|value...]." placeholder:"KEY=VALUE"`
	Page     int      `help:"Page number." default:"1"`
	PageSize int      `help:"Rows per page." default:"20"`
	Width    int      `help:"Maximum table width, 0 for unbounded." default:"0"`
}

// renderList applies f to tbl and writes the current page.
func renderList[T any](w io.Writer, tbl *table.Table[T], rows []T, f ListFlags) error {
	tbl.SetData(rows)

	for _, key := range f.Sort {
		desc := strings.HasPrefix(key, "-")
		key = strings.TrimPrefix(key, "-")
		if err := tbl.ToggleSort(key, true); err != nil {
			return err
		}
		if desc {
			if err := tbl.ToggleSort(key, true); err != nil {
				return err
			}
		}
	}

	for _, cond := range f.Where {
		key, values, ok := strings.Cut(cond, "=")
		if !ok {
			return fmt.Errorf("invalid column filter %q, expected key=value", cond)
		}
		if err := tbl.SetColumnFilter(key, strings.Split(values, "|")...); err != nil {
			return err
		}
	}

	tbl.SetGlobalFilter(f.Filter)
	tbl.SetPage(f.Page - 1)

	_, err := fmt.Fprint(w, table.Render(tbl.View(), f.Width))
	return err
}

// InputFlags reads a create or update payload.
type InputFlags struct {
	File string            `help:"YAML file with the record fields." type:"existingfile" short:"F"`
	Set  map[string]string `help:"Field value, overrides the file." placeholder:"FIELD=VALUE"`
}

// decodeInput merges the file and --set values into an input record. The
// merged document is decoded straight into I, so string fields keep the
// literal text (phone and policy numbers with leading zeros or a plus sign)
// while numeric and decimal fields are parsed from the same text.
func decodeInput[I any](f InputFlags) (I, error) {
	var in I

	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if f.File != "" {
		data, err := os.ReadFile(f.File)
		if err != nil {
			return in, fmt.Errorf("failed to read input file: %w", err)
		}
		var file yaml.Node
		if err := yaml.Unmarshal(data, &file); err != nil {
			return in, fmt.Errorf("failed to parse input file: %w", err)
		}
		if len(file.Content) > 0 {
			if file.Content[0].Kind != yaml.MappingNode {
				return in, fmt.Errorf("input file must map field names to values")
			}
			doc = file.Content[0]
		}
	}

	for _, k := range slices.Sorted(maps.Keys(f.Set)) {
		setField(doc, k, f.Set[k])
	}

	if len(doc.Content) == 0 {
		return in, fmt.Errorf("no fields given, use --file or --set")
	}

	if err := doc.Decode(&in); err != nil {
		return in, fmt.Errorf("failed to decode input: %w", err)
	}

	return in, nil
}

// setField sets key in the mapping node m, replacing an existing value.
func setField(m *yaml.Node, key, value string) {
	v := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
}
