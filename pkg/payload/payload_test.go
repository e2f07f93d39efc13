package payload_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot-studio/pkg/payload"
)

var validPayloads = map[payload.Kind]string{
	payload.KindText:     `{"type":"text","text":{"body":"Hi","preview_url":false}}`,
	payload.KindImage:    `{"type":"image","image":{"link":"https://example.com/a.png","caption":"a cat"}}`,
	payload.KindVideo:    `{"type":"video","video":{"id":"1234"}}`,
	payload.KindAudio:    `{"type":"audio","audio":{"id":"5678"}}`,
	payload.KindDocument: `{"type":"document","document":{"link":"https://example.com/menu.pdf","filename":"menu.pdf"}}`,
	payload.KindSticker:  `{"type":"sticker","sticker":{"id":"st-1"}}`,
	payload.KindLocation: `{"type":"location","location":{"latitude":"52.5200","longitude":"13.4050","name":"Office","address":"Alexanderplatz 1"}}`,
	payload.KindContacts: `{"type":"contacts","contacts":[
		{"name":{"formatted_name":"Ada Lovelace","first_name":"Ada"},
		 "birthday":"1815-12-10",
		 "phones":[{"phone":"+441234","type":"HOME"},{"phone":"+445678","type":"WORK","wa_id":"445678"}],
		 "emails":[{"email":"ada@example.com"}],
		 "org":{"company":"Analytical Engines"}}]}`,
	payload.KindInteractiveButton: `{"type":"interactive","interactive":{
		"type":"button",
		"header":{"type":"text","text":"Welcome"},
		"body":{"text":"Pick one"},
		"footer":{"text":"Reply anytime"},
		"action":{"buttons":[
			{"type":"reply","reply":{"id":"yes","title":"Yes"}},
			{"type":"reply","reply":{"id":"no","title":"No"}}]}}}`,
	payload.KindInteractiveList: `{"type":"interactive","interactive":{
		"type":"list",
		"body":{"text":"Our menu"},
		"action":{"button":"Open menu","sections":[
			{"title":"Drinks","rows":[
				{"id":"tea","title":"Tea","description":"Hot"},
				{"id":"coffee","title":"Coffee"}]},
			{"rows":[{"id":"water","title":"Water"}]}]}}}`,
	payload.KindTemplate: `{"type":"template","template":{
		"name":"order_update",
		"language":{"code":"en_US","policy":"deterministic"},
		"components":[
			{"type":"body","parameters":[
				{"type":"text","text":"Ada"},
				{"type":"currency","currency":{"fallback_value":"$10","code":"USD","amount_1000":10000}}]},
			{"type":"button","sub_type":"quick_reply","index":"0","parameters":[{"type":"payload","payload":"TRACK"}]}]}}`,
	payload.KindReaction: `{"type":"reaction","reaction":{"message_id":"wamid.1","emoji":""}}`,
}

func fields(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, payload.ErrSchemaMismatch), "expected schema mismatch, got %v", err)

	var verr *payload.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, payload.SchemaMismatch, verr.Kind)

	out := make([]string, len(verr.Issues))
	for i, issue := range verr.Issues {
		out[i] = issue.Field
	}
	return out
}

func TestParseAcceptsEveryKind(t *testing.T) {
	for kind, raw := range validPayloads {
		t.Run(string(kind), func(t *testing.T) {
			p, err := payload.Parse([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, kind, p.Kind())
		})
	}
}

func TestRoundTripIsLossless(t *testing.T) {
	for kind, raw := range validPayloads {
		t.Run(string(kind), func(t *testing.T) {
			first, err := payload.Parse([]byte(raw))
			require.NoError(t, err)

			encoded, err := json.Marshal(first)
			require.NoError(t, err)
			assert.JSONEq(t, raw, string(encoded))

			second, err := payload.Parse(encoded)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			again, err := json.Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(encoded), string(again))
		})
	}
}

func TestParseMismatchedVariantKey(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"text","image":{"id":"123"}}`))
	assert.ElementsMatch(t, []string{"image", "text"}, fields(t, err))
}

func TestParseRejectsExtraTopLevelKey(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"text","text":{"body":"Hi"},"location":{"latitude":"1","longitude":"2"}}`))
	assert.Equal(t, []string{"location"}, fields(t, err))
}

func TestParseUnknownOrMissingType(t *testing.T) {
	for name, raw := range map[string]string{
		"unknown":    `{"type":"carousel","carousel":{}}`,
		"missing":    `{"text":{"body":"Hi"}}`,
		"not string": `{"type":7}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := payload.Parse([]byte(raw))
			assert.Equal(t, []string{"type"}, fields(t, err))
		})
	}
}

func TestParseNotAnObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"text"`, `null`, `{`} {
		_, err := payload.Parse([]byte(raw))
		assert.Equal(t, []string{""}, fields(t, err), raw)
	}
}

func TestParseRejectsUnknownNestedField(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"text","text":{"body":"Hi","caption":"nope"}}`))
	assert.Equal(t, []string{"text.caption"}, fields(t, err))
}

func TestParseCaptionOnlyOnVisualMedia(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"audio","audio":{"id":"1","caption":"loud"}}`))
	assert.Equal(t, []string{"audio.caption"}, fields(t, err))

	_, err = payload.Parse([]byte(`{"type":"image","image":{"id":"1","filename":"a.png"}}`))
	assert.Equal(t, []string{"image.filename"}, fields(t, err))
}

func TestParseMediaNeedsIDOrLink(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"image","image":{"caption":"nothing to show"}}`))
	for _, f := range fields(t, err) {
		assert.True(t, strings.HasPrefix(f, "image"), f)
	}
}

func TestParseMissingRequiredField(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"location","location":{"latitude":"52.52"}}`))
	assert.Equal(t, []string{"location.longitude"}, fields(t, err))
}

func TestParseCoordinatesAreOpaqueStrings(t *testing.T) {
	p, err := payload.Parse([]byte(`{"type":"location","location":{"latitude":"not-a-number","longitude":"999"}}`))
	require.NoError(t, err)
	assert.Equal(t, "not-a-number", p.(payload.Location).Latitude)

	_, err = payload.Parse([]byte(`{"type":"location","location":{"latitude":52.52,"longitude":"13.40"}}`))
	assert.Equal(t, []string{"location.latitude"}, fields(t, err))
}

func TestParseInteractiveButtonLimit(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"interactive","interactive":{"type":"button","body":{"text":"?"},"action":{"buttons":[
		{"type":"reply","reply":{"id":"1","title":"a"}},
		{"type":"reply","reply":{"id":"2","title":"b"}},
		{"type":"reply","reply":{"id":"3","title":"c"}},
		{"type":"reply","reply":{"id":"4","title":"d"}}]}}}`))
	assert.Equal(t, []string{"interactive.action.buttons"}, fields(t, err))
}

func TestParseInteractiveNestedPath(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"interactive","interactive":{"type":"button","body":{"text":"?"},"action":{"buttons":[
		{"type":"reply","reply":{"id":"1","title":"a"}},
		{"type":"reply","reply":{"id":"2"}}]}}}`))
	assert.Equal(t, []string{"interactive.action.buttons[1].reply.title"}, fields(t, err))
}

func TestParseInteractiveSubtype(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"interactive","interactive":{"type":"carousel","body":{"text":"?"}}}`))
	assert.Equal(t, []string{"interactive.type"}, fields(t, err))

	// list fields are not accepted on a button message
	_, err = payload.Parse([]byte(`{"type":"interactive","interactive":{"type":"button","body":{"text":"?"},
		"action":{"button":"Open","sections":[{"rows":[{"id":"1","title":"a"}]}]}}}`))
	assert.ElementsMatch(t, []string{"interactive.action.button", "interactive.action.buttons", "interactive.action.sections"}, fields(t, err))
}

func TestParseInteractiveHeaderMustMatchType(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"interactive","interactive":{"type":"button",
		"header":{"type":"text","image":{"id":"1"}},
		"body":{"text":"?"},
		"action":{"buttons":[{"type":"reply","reply":{"id":"1","title":"a"}}]}}}`))
	assert.Equal(t, []string{"interactive.header.image", "interactive.header.text"}, fields(t, err))
}

func TestParseTemplateComponentsMustMatchType(t *testing.T) {
	tests := []struct {
		name      string
		component string
		want      []string
	}{
		{
			name:      "text parameter carrying an image",
			component: `{"type":"body","parameters":[{"type":"text","image":{"id":"1"}}]}`,
			want:      []string{"template.components[0].parameters[0].image", "template.components[0].parameters[0].text"},
		},
		{
			name:      "currency parameter carrying text",
			component: `{"type":"body","parameters":[{"type":"currency","text":"hello"}]}`,
			want:      []string{"template.components[0].parameters[0].currency", "template.components[0].parameters[0].text"},
		},
		{
			name:      "second parameter mismatched",
			component: `{"type":"header","parameters":[{"type":"text","text":"ok"},{"type":"video","document":{"id":"1"}}]}`,
			want:      []string{"template.components[0].parameters[1].document", "template.components[0].parameters[1].video"},
		},
		{
			name:      "button fields on a body component",
			component: `{"type":"body","sub_type":"url","index":"0","parameters":[{"type":"text","text":"ok"}]}`,
			want:      []string{"template.components[0].index", "template.components[0].sub_type"},
		},
		{
			name:      "button without sub_type and index",
			component: `{"type":"button","parameters":[{"type":"payload","payload":"GO"}]}`,
			want:      []string{"template.components[0].index", "template.components[0].sub_type"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"type":"template","template":{"name":"order_update","language":{"code":"en_US"},"components":[` + tt.component + `]}}`
			_, err := payload.Parse([]byte(raw))
			assert.Equal(t, tt.want, fields(t, err))
		})
	}
}

func TestParseListPreservesOrder(t *testing.T) {
	p, err := payload.Parse([]byte(validPayloads[payload.KindInteractiveList]))
	require.NoError(t, err)

	list := p.(payload.InteractiveList)
	require.Len(t, list.Action.Sections, 2)
	var ids []string
	for _, row := range list.Action.Sections[0].Rows {
		ids = append(ids, row.ID)
	}
	assert.Equal(t, []string{"tea", "coffee"}, ids)
}

func TestParseContactsPath(t *testing.T) {
	_, err := payload.Parse([]byte(`{"type":"contacts","contacts":[{"name":{"formatted_name":"A"}},{"phones":[{"phone":"1"}]}]}`))
	assert.Equal(t, []string{"contacts[1].name"}, fields(t, err))

	_, err = payload.Parse([]byte(`{"type":"contacts","contacts":[]}`))
	assert.Equal(t, []string{"contacts"}, fields(t, err))
}

func TestParseMap(t *testing.T) {
	p, err := payload.ParseMap(map[string]any{
		"type": "text",
		"text": map[string]any{"body": "Hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, payload.Text{Body: "Hi"}, p)

	_, err = payload.ParseMap(map[string]any{"type": "text", "image": map[string]any{"id": "123"}})
	assert.ErrorIs(t, err, payload.ErrSchemaMismatch)
}

func TestParseListPrefixesIssues(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"type":"text","text":{"body":"Hi"}}`),
		json.RawMessage(`{"type":"text","text":{}}`),
		json.RawMessage(`{"type":"reaction","reaction":{"message_id":"m"}}`),
	}
	_, err := payload.ParseList(raws)
	assert.Equal(t, []string{"payloads[1].text.body", "payloads[2].reaction.emoji"}, fields(t, err))

	ps, err := payload.ParseList(raws[:1])
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, payload.KindText, ps[0].Kind())
}

func TestMarshalList(t *testing.T) {
	b, err := payload.MarshalList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = payload.MarshalList([]payload.Payload{payload.Text{Body: "a"}, payload.Sticker{ID: "s"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"text","text":{"body":"a"}},{"type":"sticker","sticker":{"id":"s"}}]`, string(b))
}

func TestInteractiveVariantsShareWireType(t *testing.T) {
	assert.Equal(t, payload.TypeInteractive, payload.InteractiveButton{}.Type())
	assert.Equal(t, payload.TypeInteractive, payload.InteractiveList{}.Type())
	assert.Contains(t, payload.Types(), payload.TypeInteractive)
	assert.NotContains(t, payload.Types(), string(payload.KindInteractiveButton))
}
