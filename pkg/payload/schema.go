package payload

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// SchemaBaseURL prefixes the $id of every embedded schema.
const SchemaBaseURL = "https://chatbot-studio.local/schemas/"

//go:embed schemas/*.json schemas/refs/*.json
var schemaFS embed.FS

// Validator validates variant bodies against JSON schemas keyed by $id.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidatorFromFS builds a Validator from fsys. JSON files at the top level
// are compiled as schemas, files in refs/ are only available as $ref targets.
func NewValidatorFromFS(fsys fs.FS) (*Validator, error) {
	readDir := func(dir string) ([]string, error) {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("cannot read dir %s: %w", dir, err)
		}
		var docs []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("cannot read file '%s': %w", e.Name(), err)
			}
			docs = append(docs, string(b))
		}
		return docs, nil
	}

	tops, err := readDir(".")
	if err != nil {
		return nil, err
	}
	refs, err := readDir("refs")
	if err != nil {
		return nil, err
	}
	return NewValidator(tops, refs)
}

// NewValidator compiles schemas, each of which may $ref any of refs.
func NewValidator(schemas, refs []string) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(schemas))}
	for _, doc := range schemas {
		var head struct {
			ID string `json:"$id"`
		}
		if err := json.Unmarshal([]byte(doc), &head); err != nil {
			return nil, fmt.Errorf("parse error '%v' in schema: '%s'", err, doc)
		}
		if head.ID == "" {
			return nil, fmt.Errorf("schema does not contain $id: '%s'", doc)
		}

		sl := gojsonschema.NewSchemaLoader()
		for _, ref := range refs {
			if err := sl.AddSchemas(gojsonschema.NewStringLoader(ref)); err != nil {
				return nil, fmt.Errorf("cannot add ref for %s: %w", head.ID, err)
			}
		}
		compiled, err := sl.Compile(gojsonschema.NewStringLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("cannot compile schema %s: %w", head.ID, err)
		}
		v.schemas[head.ID] = compiled
	}
	return v, nil
}

// HasSchema reports whether schemaID is known.
func (v *Validator) HasSchema(schemaID string) bool {
	_, ok := v.schemas[schemaID]
	return ok
}

// Validate checks body against schemaID and returns the violations as issues
// rooted at root. A nil slice means body is valid.
func (v *Validator) Validate(body []byte, schemaID, root string) ([]Issue, error) {
	s, ok := v.schemas[schemaID]
	if !ok {
		return nil, fmt.Errorf("there is no schema %s", schemaID)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("cannot validate with schema %s: %w", schemaID, err)
	}
	if result.Valid() {
		return nil, nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	seen := make(map[Issue]struct{})
	for _, re := range result.Errors() {
		field := fieldPath(root, re.Field())
		switch re.Type() {
		case "required", "additional_property_not_allowed":
			if prop, ok := re.Details()["property"].(string); ok {
				field = joinField(field, prop)
			}
		}
		expected := re.Description()
		if re.Type() == "additional_property_not_allowed" {
			expected = "absent"
		}
		issue := Issue{Field: field, Expected: expected}
		if _, dup := seen[issue]; dup {
			continue
		}
		seen[issue] = struct{}{}
		issues = append(issues, issue)
	}
	return issues, nil
}

// fieldPath turns a gojsonschema context such as "action.buttons.0.reply"
// into "interactive.action.buttons[0].reply".
func fieldPath(root, field string) string {
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return root
	}
	out := root
	for _, seg := range strings.Split(field, ".") {
		if _, err := strconv.Atoi(seg); err == nil {
			out += "[" + seg + "]"
			continue
		}
		out = joinField(out, seg)
	}
	return out
}

func joinField(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

var (
	defaultValidator     *Validator
	defaultValidatorErr  error
	defaultValidatorOnce sync.Once
)

// schemas returns the validator compiled from the embedded schemas.
func schemas() (*Validator, error) {
	defaultValidatorOnce.Do(func() {
		sub, err := fs.Sub(schemaFS, "schemas")
		if err != nil {
			defaultValidatorErr = err
			return
		}
		defaultValidator, defaultValidatorErr = NewValidatorFromFS(sub)
	})
	return defaultValidator, defaultValidatorErr
}

func schemaID(name string) string {
	return SchemaBaseURL + name + ".json"
}
