package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// schemaFor maps a wire type to the schema that validates its variant body.
// Interactive payloads are resolved one level deeper by interactive.type.
var schemaFor = map[string]string{
	TypeText:     "text",
	TypeImage:    "image",
	TypeVideo:    "video",
	TypeAudio:    "audio",
	TypeDocument: "document",
	TypeSticker:  "sticker",
	TypeLocation: "location",
	TypeContacts: "contacts",
	TypeTemplate: "template",
	TypeReaction: "reaction",
}

var interactiveSchemaFor = map[string]string{
	"button": "interactive-button",
	"list":   "interactive-list",
}

// Types lists the accepted wire discriminators in sorted order.
func Types() []string {
	out := make([]string, 0, len(schemaFor)+1)
	for t := range schemaFor {
		out = append(out, t)
	}
	out = append(out, TypeInteractive)
	sort.Strings(out)
	return out
}

// Parse validates raw, a JSON object of the form {"type": T, T: {...}}, and
// returns the matching variant. Every other populated key is rejected.
func Parse(raw []byte) (Payload, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope == nil {
		return nil, mismatch(Issue{Field: "", Expected: "a JSON object with a \"type\" field"})
	}

	rawType, ok := envelope["type"]
	if !ok {
		return nil, mismatch(Issue{Field: "type", Expected: "one of " + quoteList(Types())})
	}
	var typ string
	if err := json.Unmarshal(rawType, &typ); err != nil || !knownType(typ) {
		return nil, mismatch(Issue{Field: "type", Expected: "one of " + quoteList(Types())})
	}

	var issues []Issue
	for key := range envelope {
		if key == "type" || key == typ {
			continue
		}
		issues = append(issues, Issue{Field: key, Expected: fmt.Sprintf("absent for type %q", typ)})
	}
	body, ok := envelope[typ]
	if !ok || isNull(body) {
		issues = append(issues, Issue{Field: typ, Expected: fmt.Sprintf("present for type %q", typ)})
	}
	if len(issues) > 0 {
		return nil, mismatch(issues...)
	}

	if typ == TypeInteractive {
		return parseInteractive(body)
	}
	issues, err := validateBody(body, schemaFor[typ], typ)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, mismatch(issues...)
	}
	return decode(typ, body)
}

// ParseMap validates an already decoded JSON object.
func ParseMap(m map[string]any) (Payload, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, mismatch(Issue{Field: "", Expected: "JSON-encodable values"})
	}
	return Parse(raw)
}

// ParseList validates every element of raws. Issues from all elements are
// collected, each rooted at payloads[i].
func ParseList(raws []json.RawMessage) ([]Payload, error) {
	out := make([]Payload, 0, len(raws))
	var issues []Issue
	for i, raw := range raws {
		p, err := Parse(raw)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			issues = append(issues, verr.Prefix("payloads["+strconv.Itoa(i)+"]").Issues...)
			continue
		}
		out = append(out, p)
	}
	if len(issues) > 0 {
		return nil, mismatch(issues...)
	}
	return out, nil
}

func parseInteractive(body json.RawMessage) (Payload, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, mismatch(Issue{Field: TypeInteractive, Expected: "object"})
	}
	if head.Type == nil {
		return nil, mismatch(Issue{Field: "interactive.type", Expected: `one of "button", "list"`})
	}
	name, ok := interactiveSchemaFor[*head.Type]
	if !ok {
		return nil, mismatch(Issue{Field: "interactive.type", Expected: `one of "button", "list"`})
	}

	issues, err := validateBody(body, name, TypeInteractive)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, mismatch(issues...)
	}

	var wire struct {
		Header *HeaderObj      `json:"header"`
		Body   BodyObj         `json:"body"`
		Footer *FooterObj      `json:"footer"`
		Action json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, mismatch(Issue{Field: TypeInteractive, Expected: err.Error()})
	}
	if wire.Header != nil {
		if issues := checkHeader(wire.Header); len(issues) > 0 {
			return nil, mismatch(issues...)
		}
	}

	if *head.Type == "button" {
		p := InteractiveButton{Header: wire.Header, Body: wire.Body, Footer: wire.Footer}
		if err := json.Unmarshal(wire.Action, &p.Action); err != nil {
			return nil, mismatch(Issue{Field: "interactive.action", Expected: err.Error()})
		}
		return p, nil
	}
	p := InteractiveList{Header: wire.Header, Body: wire.Body, Footer: wire.Footer}
	if err := json.Unmarshal(wire.Action, &p.Action); err != nil {
		return nil, mismatch(Issue{Field: "interactive.action", Expected: err.Error()})
	}
	return p, nil
}

// checkHeader enforces that only the field named by header.type is populated.
func checkHeader(h *HeaderObj) []Issue {
	populated := map[string]bool{
		"text":     h.Text != "",
		"image":    h.Image != nil,
		"video":    h.Video != nil,
		"document": h.Document != nil,
	}
	var issues []Issue
	for field, set := range populated {
		path := "interactive.header." + field
		switch {
		case field == h.Type && !set:
			issues = append(issues, Issue{Field: path, Expected: fmt.Sprintf("present for header type %q", h.Type)})
		case field != h.Type && set:
			issues = append(issues, Issue{Field: path, Expected: fmt.Sprintf("absent for header type %q", h.Type)})
		}
	}
	return issues
}

// checkTemplate enforces that each component and parameter only populates
// the fields its own type allows.
func checkTemplate(t TemplateRef) []Issue {
	var issues []Issue
	for i, c := range t.Components {
		path := "template.components[" + strconv.Itoa(i) + "]"
		isButton := c.Type == "button"
		for _, f := range []struct {
			name string
			set  bool
		}{{"sub_type", c.SubType != ""}, {"index", c.Index != ""}} {
			switch {
			case isButton && !f.set:
				issues = append(issues, Issue{Field: path + "." + f.name, Expected: `present for component type "button"`})
			case !isButton && f.set:
				issues = append(issues, Issue{Field: path + "." + f.name, Expected: fmt.Sprintf("absent for component type %q", c.Type)})
			}
		}
		for j, prm := range c.Parameters {
			issues = append(issues, checkParameter(prm, path+".parameters["+strconv.Itoa(j)+"]")...)
		}
	}
	return issues
}

func checkParameter(prm ParameterObj, path string) []Issue {
	populated := []struct {
		name string
		set  bool
	}{
		{"text", prm.Text != ""},
		{"payload", prm.Payload != ""},
		{"currency", prm.Currency != nil},
		{"date_time", prm.DateTime != nil},
		{"image", prm.Image != nil},
		{"video", prm.Video != nil},
		{"document", prm.Document != nil},
	}
	var issues []Issue
	for _, f := range populated {
		switch {
		case f.name == prm.Type && !f.set:
			issues = append(issues, Issue{Field: path + "." + f.name, Expected: fmt.Sprintf("present for parameter type %q", prm.Type)})
		case f.name != prm.Type && f.set:
			issues = append(issues, Issue{Field: path + "." + f.name, Expected: fmt.Sprintf("absent for parameter type %q", prm.Type)})
		}
	}
	return issues
}

func validateBody(body json.RawMessage, name, root string) ([]Issue, error) {
	v, err := schemas()
	if err != nil {
		return nil, fmt.Errorf("payload schemas: %w", err)
	}
	return v.Validate(body, schemaID(name), root)
}

func decode(typ string, body json.RawMessage) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch typ {
	case TypeText:
		var v Text
		err = json.Unmarshal(body, &v)
		p = v
	case TypeImage, TypeVideo, TypeAudio, TypeDocument, TypeSticker:
		var m MediaObj
		err = json.Unmarshal(body, &m)
		p = media(typ, m)
	case TypeLocation:
		var v Location
		err = json.Unmarshal(body, &v)
		p = v
	case TypeContacts:
		var v []ContactObj
		err = json.Unmarshal(body, &v)
		p = Contacts(v)
	case TypeTemplate:
		var v TemplateRef
		if err = json.Unmarshal(body, &v); err == nil {
			if issues := checkTemplate(v); len(issues) > 0 {
				return nil, mismatch(issues...)
			}
		}
		p = v
	case TypeReaction:
		var v Reaction
		err = json.Unmarshal(body, &v)
		p = v
	default:
		return nil, mismatch(Issue{Field: "type", Expected: "one of " + quoteList(Types())})
	}
	if err != nil {
		return nil, mismatch(Issue{Field: typ, Expected: err.Error()})
	}
	return p, nil
}

func media(typ string, m MediaObj) Payload {
	switch typ {
	case TypeImage:
		return Image(m)
	case TypeVideo:
		return Video(m)
	case TypeAudio:
		return Audio(m)
	case TypeDocument:
		return Document(m)
	default:
		return Sticker(m)
	}
}

func knownType(typ string) bool {
	if typ == TypeInteractive {
		return true
	}
	_, ok := schemaFor[typ]
	return ok
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func quoteList(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += strconv.Quote(s)
	}
	return out
}
