// Package payload implements the message payloads attached to content nodes.
//
// A Payload is a closed sum type: exactly one variant per message kind, built
// only through Parse (or ParseMap), which rejects any input whose populated
// fields do not match the declared type. Every variant marshals back to the
// envelope form {"type": ..., "<type>": {...}} that Parse accepts.
package payload

import (
	"encoding/json"
)

// Kind names a payload variant.
type Kind string

const (
	KindText              Kind = "text"
	KindImage             Kind = "image"
	KindVideo             Kind = "video"
	KindAudio             Kind = "audio"
	KindDocument          Kind = "document"
	KindSticker           Kind = "sticker"
	KindLocation          Kind = "location"
	KindContacts          Kind = "contacts"
	KindInteractiveButton Kind = "interactive-button"
	KindInteractiveList   Kind = "interactive-list"
	KindTemplate          Kind = "template-reference"
	KindReaction          Kind = "reaction"
)

// Wire discriminators, as sent in the "type" field of a message.
const (
	TypeText        = "text"
	TypeImage       = "image"
	TypeVideo       = "video"
	TypeAudio       = "audio"
	TypeDocument    = "document"
	TypeSticker     = "sticker"
	TypeLocation    = "location"
	TypeContacts    = "contacts"
	TypeInteractive = "interactive"
	TypeTemplate    = "template"
	TypeReaction    = "reaction"
)

// Payload is one validated message body.
type Payload interface {
	json.Marshaler
	// Kind reports the variant.
	Kind() Kind
	// Type reports the wire discriminator. Both interactive variants report
	// "interactive".
	Type() string
	isPayload()
}

type Text struct {
	Body       string `json:"body"`
	PreviewURL *bool  `json:"preview_url,omitempty"`
}

type Image MediaObj
type Video MediaObj
type Audio MediaObj
type Document MediaObj
type Sticker MediaObj

// Location coordinates are kept as the strings the client sent.
type Location struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Name      string `json:"name,omitempty"`
	Address   string `json:"address,omitempty"`
}

type Contacts []ContactObj

type InteractiveButton struct {
	Header *HeaderObj
	Body   BodyObj
	Footer *FooterObj
	Action ButtonAction
}

type InteractiveList struct {
	Header *HeaderObj
	Body   BodyObj
	Footer *FooterObj
	Action ListAction
}

// TemplateRef points at a message template registered with the messaging
// platform.
type TemplateRef struct {
	Name       string         `json:"name"`
	Language   LanguageObj    `json:"language"`
	Namespace  string         `json:"namespace,omitempty"`
	Components []ComponentObj `json:"components,omitempty"`
}

type Reaction struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

func (Text) Kind() Kind              { return KindText }
func (Image) Kind() Kind             { return KindImage }
func (Video) Kind() Kind             { return KindVideo }
func (Audio) Kind() Kind             { return KindAudio }
func (Document) Kind() Kind          { return KindDocument }
func (Sticker) Kind() Kind           { return KindSticker }
func (Location) Kind() Kind          { return KindLocation }
func (Contacts) Kind() Kind          { return KindContacts }
func (InteractiveButton) Kind() Kind { return KindInteractiveButton }
func (InteractiveList) Kind() Kind   { return KindInteractiveList }
func (TemplateRef) Kind() Kind       { return KindTemplate }
func (Reaction) Kind() Kind          { return KindReaction }

func (Text) Type() string              { return TypeText }
func (Image) Type() string             { return TypeImage }
func (Video) Type() string             { return TypeVideo }
func (Audio) Type() string             { return TypeAudio }
func (Document) Type() string          { return TypeDocument }
func (Sticker) Type() string           { return TypeSticker }
func (Location) Type() string          { return TypeLocation }
func (Contacts) Type() string          { return TypeContacts }
func (InteractiveButton) Type() string { return TypeInteractive }
func (InteractiveList) Type() string   { return TypeInteractive }
func (TemplateRef) Type() string       { return TypeTemplate }
func (Reaction) Type() string          { return TypeReaction }

func (Text) isPayload()              {}
func (Image) isPayload()             {}
func (Video) isPayload()             {}
func (Audio) isPayload()             {}
func (Document) isPayload()          {}
func (Sticker) isPayload()           {}
func (Location) isPayload()          {}
func (Contacts) isPayload()          {}
func (InteractiveButton) isPayload() {}
func (InteractiveList) isPayload()   {}
func (TemplateRef) isPayload()       {}
func (Reaction) isPayload()          {}

// envelope marshals v under the key named by typ, next to the discriminator.
func envelope(typ string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{
		"type": json.RawMessage(`"` + typ + `"`),
		typ:    body,
	})
}

type interactiveWire struct {
	Type   string     `json:"type"`
	Header *HeaderObj `json:"header,omitempty"`
	Body   BodyObj    `json:"body"`
	Footer *FooterObj `json:"footer,omitempty"`
	Action any        `json:"action"`
}

// The variant bodies are marshaled through their underlying types so the
// envelope methods below do not recurse.
type (
	textBody     Text
	mediaBody    MediaObj
	locationBody Location
	templateBody TemplateRef
	reactionBody Reaction
)

func (p Text) MarshalJSON() ([]byte, error)     { return envelope(TypeText, textBody(p)) }
func (p Image) MarshalJSON() ([]byte, error)    { return envelope(TypeImage, mediaBody(p)) }
func (p Video) MarshalJSON() ([]byte, error)    { return envelope(TypeVideo, mediaBody(p)) }
func (p Audio) MarshalJSON() ([]byte, error)    { return envelope(TypeAudio, mediaBody(p)) }
func (p Document) MarshalJSON() ([]byte, error) { return envelope(TypeDocument, mediaBody(p)) }
func (p Sticker) MarshalJSON() ([]byte, error)  { return envelope(TypeSticker, mediaBody(p)) }
func (p Location) MarshalJSON() ([]byte, error) { return envelope(TypeLocation, locationBody(p)) }
func (p Contacts) MarshalJSON() ([]byte, error) {
	return envelope(TypeContacts, []ContactObj(p))
}
func (p TemplateRef) MarshalJSON() ([]byte, error) {
	return envelope(TypeTemplate, templateBody(p))
}
func (p Reaction) MarshalJSON() ([]byte, error) { return envelope(TypeReaction, reactionBody(p)) }

func (p InteractiveButton) MarshalJSON() ([]byte, error) {
	return envelope(TypeInteractive, interactiveWire{
		Type:   "button",
		Header: p.Header,
		Body:   p.Body,
		Footer: p.Footer,
		Action: p.Action,
	})
}

func (p InteractiveList) MarshalJSON() ([]byte, error) {
	return envelope(TypeInteractive, interactiveWire{
		Type:   "list",
		Header: p.Header,
		Body:   p.Body,
		Footer: p.Footer,
		Action: p.Action,
	})
}

// MarshalList serializes payloads as a JSON array of envelopes.
func MarshalList(payloads []Payload) ([]byte, error) {
	if payloads == nil {
		payloads = []Payload{}
	}
	return json.Marshal(payloads)
}
