package anomaly

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Flow names in the catalog.
const (
	FlowDetect    = "detect"
	FlowSummarize = "summarize"
)

// FieldType is the JSON type of a response field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldArray  FieldType = "array" // array of strings
)

// Field is one property of a flow's JSON response.
type Field struct {
	Name        string    `yaml:"name"`
	Type        FieldType `yaml:"type"`
	Description string    `yaml:"description"`
}

// FlowSpec is one catalog entry.
type FlowSpec struct {
	Template string  `yaml:"template"`
	Fields   []Field `yaml:"fields"`
	Schema   string  `yaml:"schema"`

	tmpl *template.Template
}

// Render executes the flow template with data.
func (f *FlowSpec) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Catalog holds the flows by name.
type Catalog struct {
	Flows map[string]*FlowSpec `yaml:"flows"`
}

// Flow returns the named flow.
func (c *Catalog) Flow(name string) (*FlowSpec, error) {
	f, ok := c.Flows[name]
	if !ok {
		return nil, fmt.Errorf("unknown flow %q", name)
	}
	return f, nil
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(promptsYAML)
}

// ParseCatalog decodes a catalog strictly and compiles its templates.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	if len(c.Flows) == 0 {
		return nil, fmt.Errorf("prompt catalog has no flows")
	}

	for name, f := range c.Flows {
		if f == nil || strings.TrimSpace(f.Template) == "" {
			return nil, fmt.Errorf("flow %q: template is required", name)
		}
		if len(f.Fields) == 0 {
			return nil, fmt.Errorf("flow %q: at least one field is required", name)
		}
		for _, fld := range f.Fields {
			if fld.Type != FieldString && fld.Type != FieldArray {
				return nil, fmt.Errorf("flow %q: field %q: unsupported type %q", name, fld.Name, fld.Type)
			}
		}
		if strings.TrimSpace(f.Schema) == "" {
			return nil, fmt.Errorf("flow %q: schema is required", name)
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(f.Template)
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", name, err)
		}
		f.tmpl = tmpl
	}
	return &c, nil
}
