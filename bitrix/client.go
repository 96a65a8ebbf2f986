// Package bitrix reads the product catalog of a Bitrix24 portal through an
// inbound webhook.
package bitrix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

const listMethod = "catalog.product.list"

var listSelect = []string{
	"ID", "NAME", "CODE", "DETAIL_TEXT", "PRICE", "SECTION_ID", "PREVIEW_PICTURE", "DETAIL_PICTURE",
}

// FetchParams identify the webhook: {BaseURL}/rest/{UserId}/{WebhookCode}/.
type FetchParams struct {
	BaseURL     string
	WebhookCode string
	UserId      string
}

func (p FetchParams) endpoint() (string, string, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(p.BaseURL), "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", models.NewValidationError("bitrix_url", "bitrix_url must be an absolute http(s) URL")
	}
	if strings.TrimSpace(p.WebhookCode) == "" || strings.Contains(p.WebhookCode, "/") {
		return "", "", models.NewValidationError("webhook_code", "invalid webhook_code")
	}
	userId := p.UserId
	if userId == "" {
		userId = "1"
	}
	u = u.JoinPath("rest", userId, p.WebhookCode, listMethod)
	return u.String(), u.Host, nil
}

type listRequest struct {
	Select []string          `json:"select"`
	Filter map[string]string `json:"filter"`
}

type envelope struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// items accepts both a bare list and the {"products": [...]} form newer
// catalog methods return.
func (e envelope) items() ([]json.RawMessage, error) {
	if len(e.Result) == 0 || string(e.Result) == "null" {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(e.Result, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Products []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(e.Result, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected result shape: %w", err)
	}
	return wrapped.Products, nil
}

// Client calls Bitrix portals. Each portal host gets its own circuit breaker
// so one unreachable portal does not block imports from another.
type Client struct {
	rc *resty.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewClient(timeout time.Duration) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{
		rc:       rc,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *Client) breaker(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "bitrix:" + host,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		})
		c.breakers[host] = cb
	}
	return cb
}

// FetchProducts requests the active products of the portal. Invalid
// parameters return a *models.ValidationError; any transport, status or
// envelope failure returns a *models.UpstreamError.
func (c *Client) FetchProducts(ctx context.Context, p FetchParams) ([]json.RawMessage, error) {
	endpoint, host, err := p.endpoint()
	if err != nil {
		return nil, err
	}
	body := listRequest{
		Select: listSelect,
		Filter: map[string]string{"ACTIVE": "Y"},
	}

	res, err := c.breaker(host).Execute(func() (interface{}, error) {
		resp, err := c.rc.R().SetContext(ctx).SetBody(body).Post(endpoint)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return nil, fmt.Errorf("bitrix API error: %d", resp.StatusCode())
		}
		var env envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if env.Error != "" {
			if env.ErrorDescription != "" {
				return nil, errors.New(env.ErrorDescription)
			}
			return nil, errors.New(env.Error)
		}
		return env.items()
	})
	if err != nil {
		slog.Error("FetchProducts", "host", host, "err", err)
		return nil, &models.UpstreamError{Service: "bitrix", Err: err}
	}
	items, _ := res.([]json.RawMessage)
	return items, nil
}
