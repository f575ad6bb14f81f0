package tree

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// nodeSpec is the loosely-typed shape of a node in a tree document.
// JSON documents are accepted as well since JSON is a subset of YAML.
type nodeSpec struct {
	ID           string      `mapstructure:"id"`
	Title        string      `mapstructure:"title"`
	Type         string      `mapstructure:"type"`
	Activity     bool        `mapstructure:"activity"`
	Message      string      `mapstructure:"message"`
	Media        string      `mapstructure:"media"`
	Choice       string      `mapstructure:"choice"`
	Action       string      `mapstructure:"action"`
	Validator    string      `mapstructure:"validator"`
	ErrorMessage string      `mapstructure:"error_message"`
	Next         *nodeSpec   `mapstructure:"next"`
	Children     []*nodeSpec `mapstructure:"children"`
	// Ref points at a node declared elsewhere in the document by ID.
	Ref string `mapstructure:"ref"`
}

// Document is a decoded but not yet linked tree document.
type Document struct {
	Title string
	root  *nodeSpec
	raw   map[string]any
}

// Decode parses a YAML or JSON tree document. The top-level object is the root node.
func Decode(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tree document: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("tree document is empty")
	}

	var root nodeSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &root,
		WeaklyTypedInput: true, // choice: 1 is a valid key
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode tree document: %w", err)
	}

	title := root.Title
	if title == "" {
		title = DefaultTitle
	}
	return &Document{Title: title, root: &root, raw: raw}, nil
}

// JSON returns the document in the JSON form kept by tree repositories.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d.raw, "", "  ")
}
