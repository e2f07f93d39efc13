package payload

// --- Leaf value objects ---
//
// These mirror the WhatsApp Cloud API message objects. Required fields carry no
// omitempty so that a validated payload always serializes back to an input the
// validator accepts.

type MediaObj struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"` // documents only
	Provider string `json:"provider,omitempty"`
}

type HeaderObj struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Image    *MediaObj `json:"image,omitempty"`
	Video    *MediaObj `json:"video,omitempty"`
	Document *MediaObj `json:"document,omitempty"`
}

type BodyObj struct {
	Text string `json:"text"`
}

type FooterObj struct {
	Text string `json:"text"`
}

type ButtonObj struct {
	Type  string   `json:"type"`
	Reply ReplyObj `json:"reply"`
}

type ReplyObj struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SectionObj struct {
	Title string   `json:"title,omitempty"`
	Rows  []RowObj `json:"rows"`
}

type RowObj struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ButtonAction is the action of a reply-button message.
type ButtonAction struct {
	Buttons []ButtonObj `json:"buttons"`
}

// ListAction is the action of a list message. Button is the label of the
// button that opens the list.
type ListAction struct {
	Button   string       `json:"button"`
	Sections []SectionObj `json:"sections"`
}

type LanguageObj struct {
	Code   string `json:"code"`
	Policy string `json:"policy,omitempty"`
}

type ComponentObj struct {
	Type       string         `json:"type"`
	SubType    string         `json:"sub_type,omitempty"`
	Index      string         `json:"index,omitempty"` // For buttons
	Parameters []ParameterObj `json:"parameters,omitempty"`
}

type ParameterObj struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	Payload  string       `json:"payload,omitempty"`
	Currency *CurrencyObj `json:"currency,omitempty"`
	DateTime *DateTimeObj `json:"date_time,omitempty"`
	Image    *MediaObj    `json:"image,omitempty"`
	Video    *MediaObj    `json:"video,omitempty"`
	Document *MediaObj    `json:"document,omitempty"`
}

type CurrencyObj struct {
	FallbackValue string `json:"fallback_value"`
	Code          string `json:"code"`
	Amount1000    int    `json:"amount_1000"`
}

type DateTimeObj struct {
	FallbackValue string `json:"fallback_value"`
}

// ContactObj is one entry of a contacts message.
type ContactObj struct {
	Addresses []AddressObj `json:"addresses,omitempty"`
	Birthday  string       `json:"birthday,omitempty"` // YYYY-MM-DD
	Emails    []EmailObj   `json:"emails,omitempty"`
	Name      NameObj      `json:"name"`
	Org       *OrgObj      `json:"org,omitempty"`
	Phones    []PhoneObj   `json:"phones,omitempty"`
	URLs      []URLObj     `json:"urls,omitempty"`
}

type NameObj struct {
	FormattedName string `json:"formatted_name"`
	FirstName     string `json:"first_name,omitempty"`
	MiddleName    string `json:"middle_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Suffix        string `json:"suffix,omitempty"`
	Prefix        string `json:"prefix,omitempty"`
}

type AddressObj struct {
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Type        string `json:"type,omitempty"`
}

type EmailObj struct {
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"`
}

type OrgObj struct {
	Company    string `json:"company,omitempty"`
	Department string `json:"department,omitempty"`
	Title      string `json:"title,omitempty"`
}

type PhoneObj struct {
	Phone string `json:"phone,omitempty"`
	Type  string `json:"type,omitempty"`
	WaID  string `json:"wa_id,omitempty"`
}

type URLObj struct {
	URL  string `json:"url,omitempty"`
	Type string `json:"type,omitempty"`
}
