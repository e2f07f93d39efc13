package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatbot-studio/pkg/payload"
)

// ErrNotConfigured is returned when no token or phone number id is set.
var ErrNotConfigured = errors.New("whatsapp sending is not configured")

// APIError is a non-2xx answer from the Cloud API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Body)
}

type Client struct {
	BaseURL       string
	Token         string
	PhoneNumberID string
	HTTP          *http.Client
}

func NewClient(baseURL, token, phoneNumberID string) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Token:         token,
		PhoneNumberID: phoneNumberID,
		HTTP:          &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.Token != "" && c.PhoneNumberID != ""
}

// SendResponse is the Cloud API answer to a message send.
type SendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// MessageID returns the id of the accepted message, if any.
func (r *SendResponse) MessageID() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return respBody, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// message wraps a payload envelope into a Cloud API send request.
func message(to string, p payload.Payload) (map[string]json.RawMessage, error) {
	envelope, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	msg := map[string]json.RawMessage{}
	if err := json.Unmarshal(envelope, &msg); err != nil {
		return nil, err
	}
	recipient, err := json.Marshal(to)
	if err != nil {
		return nil, err
	}
	msg["messaging_product"] = json.RawMessage(`"whatsapp"`)
	msg["recipient_type"] = json.RawMessage(`"individual"`)
	msg["to"] = recipient
	return msg, nil
}

// SendPayload sends one validated payload to the phone number to.
func (c *Client) SendPayload(ctx context.Context, to string, p payload.Payload) (*SendResponse, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	msg, err := message(to, p)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", p.Type(), err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.PhoneNumberID)
	body, err := c.sendRequest(ctx, http.MethodPost, url, msg)
	if err != nil {
		return nil, err
	}
	var out SendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	return &out, nil
}

// SendPayloads sends payloads in order and stops at the first failure. The
// ids of the messages accepted so far are returned either way.
func (c *Client) SendPayloads(ctx context.Context, to string, payloads []payload.Payload) ([]string, error) {
	ids := make([]string, 0, len(payloads))
	for i, p := range payloads {
		resp, err := c.SendPayload(ctx, to, p)
		if err != nil {
			return ids, fmt.Errorf("send payload %d: %w", i, err)
		}
		ids = append(ids, resp.MessageID())
	}
	return ids, nil
}
