package database

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	"github.com/hashicorp/hcl"
)

// TableDef is one table block of a schema file:
//
//	table "users" {
//	  file        = "users.dat"
//	  primary_key = "id"
//	  columns     = ["id int", "name string"]
//	}
//
// A missing file defaults to "<name>.dat"; relative files live in the data
// directory.
type TableDef struct {
	Name       string   `hcl:",key"`
	File       string   `hcl:"file"`
	PrimaryKey string   `hcl:"primary_key"`
	Columns    []string `hcl:"columns"`
}

type schemaFile struct {
	Tables []TableDef `hcl:"table"`
}

// LoadSchema reads the schema file at path.
func LoadSchema(path string) ([]TableDef, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	defs, err := ParseSchema(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// ParseSchema decodes schema text and checks every table definition.
func ParseSchema(text string) ([]TableDef, error) {
	var sf schemaFile
	if err := hcl.Decode(&sf, text); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(sf.Tables))
	for i := range sf.Tables {
		def := &sf.Tables[i]
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("table %q defined twice", def.Name)
		}
		seen[def.Name] = struct{}{}

		if def.File == "" {
			def.File = def.Name + ".dat"
		}
		if _, err := def.TupleDesc(); err != nil {
			return nil, err
		}
	}
	return sf.Tables, nil
}

// TupleDesc builds the schema described by the column list. Each column is
// written "<name> <type>".
func (d TableDef) TupleDesc() (*tuple.TupleDescription, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if len(d.Columns) == 0 {
		return nil, fmt.Errorf("table %s: no columns", d.Name)
	}

	fieldTypes := make([]types.Type, len(d.Columns))
	fieldNames := make([]string, len(d.Columns))
	seen := make(map[string]struct{}, len(d.Columns))

	for i, col := range d.Columns {
		parts := strings.Fields(col)
		if len(parts) != 2 {
			return nil, fmt.Errorf("table %s: malformed column %q, want \"<name> <type>\"", d.Name, col)
		}

		ft, err := types.ParseType(parts[1])
		if err != nil {
			return nil, fmt.Errorf("table %s, column %s: %w", d.Name, parts[0], err)
		}
		if _, dup := seen[parts[0]]; dup {
			return nil, fmt.Errorf("table %s: duplicate column %s", d.Name, parts[0])
		}
		seen[parts[0]] = struct{}{}

		fieldTypes[i] = ft
		fieldNames[i] = parts[0]
	}

	if d.PrimaryKey != "" {
		if _, ok := seen[d.PrimaryKey]; !ok {
			return nil, fmt.Errorf("table %s: primary key %s is not a column", d.Name, d.PrimaryKey)
		}
	}

	return tuple.NewTupleDesc(fieldTypes, fieldNames)
}

// ColumnsOf renders td as a column list for a TableDef. Unnamed fields are
// called col_<i>.
func ColumnsOf(td *tuple.TupleDescription) []string {
	cols := make([]string, td.NumFields())
	for i := range cols {
		name, _ := td.GetFieldName(i)
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		ft, _ := td.TypeAtIndex(i)
		cols[i] = name + " " + typeName(ft)
	}
	return cols
}

func typeName(t types.Type) string {
	switch t {
	case types.StringType:
		return "string"
	default:
		return "int"
	}
}

// FormatSchema renders defs as schema file text, sorted by table name.
func FormatSchema(defs []TableDef) string {
	sorted := append([]TableDef(nil), defs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for i, def := range sorted {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "table %s {\n", strconv.Quote(def.Name))
		fmt.Fprintf(&b, "  file        = %s\n", strconv.Quote(def.File))
		if def.PrimaryKey != "" {
			fmt.Fprintf(&b, "  primary_key = %s\n", strconv.Quote(def.PrimaryKey))
		}

		quoted := make([]string, len(def.Columns))
		for j, col := range def.Columns {
			quoted[j] = strconv.Quote(col)
		}
		fmt.Fprintf(&b, "  columns     = [%s]\n", strings.Join(quoted, ", "))
		b.WriteString("}\n")
	}
	return b.String()
}
