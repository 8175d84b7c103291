// Package transport delivers WhatsApp messages through a Chatwoot inbox.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sender delivers outbound messages keyed by canonical phone.
type Sender interface {
	// SendMessage opens (or reuses) a conversation with the contact and
	// posts one outgoing message.
	SendMessage(ctx context.Context, phone, name, content string) error
	// SendPair posts two messages into a single conversation, in order.
	SendPair(ctx context.Context, phone, name, first, second string) error
	// ReplyToConversation posts into an already-open conversation.
	ReplyToConversation(ctx context.Context, conversationID int, content string) error
}

// Options configures the Chatwoot client.
type Options struct {
	BaseURL    string
	Token      string
	AccountID  int
	InboxID    int
	RatePerSec float64
	Timeout    time.Duration
}

// ChatwootClient implements Sender against the Chatwoot REST API.
type ChatwootClient struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
}

// NewChatwoot creates a ChatwootClient with a shared rate limiter across
// all API calls, so bulk sends cannot trip the gateway's flood protection.
func NewChatwoot(opts Options) *ChatwootClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 0.5
	}
	return &ChatwootClient{
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

type contact struct {
	ID int `json:"id"`
}

type conversation struct {
	ID int `json:"id"`
}

func (c *ChatwootClient) SendMessage(ctx context.Context, phone, name, content string) error {
	convID, err := c.openConversation(ctx, phone, name)
	if err != nil {
		return err
	}
	return c.postMessage(ctx, convID, content)
}

func (c *ChatwootClient) SendPair(ctx context.Context, phone, name, first, second string) error {
	convID, err := c.openConversation(ctx, phone, name)
	if err != nil {
		return err
	}
	if err := c.postMessage(ctx, convID, first); err != nil {
		return err
	}
	return c.postMessage(ctx, convID, second)
}

func (c *ChatwootClient) ReplyToConversation(ctx context.Context, conversationID int, content string) error {
	return c.postMessage(ctx, conversationID, content)
}

// openConversation resolves the contact for phone (creating it when new)
// and opens a conversation in the configured inbox.
func (c *ChatwootClient) openConversation(ctx context.Context, phone, name string) (int, error) {
	contactID, err := c.findOrCreateContact(ctx, phone, name)
	if err != nil {
		return 0, err
	}

	var conv conversation
	err = c.do(ctx, http.MethodPost, "/conversations", map[string]any{
		"contact_id": contactID,
		"inbox_id":   c.opts.InboxID,
	}, &conv)
	if err != nil {
		return 0, eris.Wrapf(err, "chatwoot: create conversation for %s", phone)
	}
	return conv.ID, nil
}

func (c *ChatwootClient) findOrCreateContact(ctx context.Context, phone, name string) (int, error) {
	var created struct {
		Payload struct {
			Contact contact `json:"contact"`
		} `json:"payload"`
	}
	err := c.do(ctx, http.MethodPost, "/contacts", map[string]any{
		"inbox_id":     c.opts.InboxID,
		"name":         name,
		"phone_number": "+" + phone,
	}, &created)
	if err == nil {
		return created.Payload.Contact.ID, nil
	}

	// Most create failures mean the contact already exists; fall back to
	// a search before giving up.
	var found struct {
		Payload []contact `json:"payload"`
	}
	searchErr := c.do(ctx, http.MethodGet,
		"/contacts/search?q="+url.QueryEscape(phone), nil, &found)
	if searchErr != nil || len(found.Payload) == 0 {
		return 0, eris.Wrapf(err, "chatwoot: resolve contact %s", phone)
	}

	zap.L().Debug("contact resolved by search",
		zap.String("phone", phone),
		zap.Int("contact_id", found.Payload[0].ID),
	)
	return found.Payload[0].ID, nil
}

func (c *ChatwootClient) postMessage(ctx context.Context, conversationID int, content string) error {
	err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/conversations/%d/messages", conversationID),
		map[string]any{
			"content":      content,
			"message_type": "outgoing",
		}, nil)
	return eris.Wrapf(err, "chatwoot: post message to conversation %d", conversationID)
}

// do executes one rate-limited API call and decodes the response into out
// when non-nil. Non-2xx responses become errors carrying the raw body so
// the send log stays greppable.
func (c *ChatwootClient) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "chatwoot: rate limit wait")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "chatwoot: marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := fmt.Sprintf("%s/api/v1/accounts/%d%s", c.opts.BaseURL, c.opts.AccountID, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return eris.Wrap(err, "chatwoot: build request")
	}
	req.Header.Set("api_access_token", c.opts.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "chatwoot: %s %s", method, path)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("chatwoot: %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return eris.Wrapf(err, "chatwoot: decode %s response", path)
		}
	}
	return nil
}
