// Package panos collects device inventories from the PAN-OS XML API of a
// Panorama or a single firewall.
package panos

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	apiPath        = "/api/"
	statusSuccess  = "success"
	defaultTimeout = 30 * time.Second
	maxBodySize    = 32 << 20
)

// ErrNoCredentials is returned when a key is needed and no username or
// password was configured.
var ErrNoCredentials = errors.New("panos: username and password are required")

// APIError is returned when the XML API answers with a non-success status.
type APIError struct {
	HTTPStatus int
	Status     string
	Code       string
	Messages   []string
}

func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if msg == "" {
		msg = "no message"
	}
	if e.Code != "" {
		return fmt.Sprintf("panos api %s (code %s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("panos api %s: %s", e.Status, msg)
}

// ClientConfig holds connection settings.
type ClientConfig struct {
	// Hostname is a host name or address. A value with a scheme
	// (https://host:port) is used as the base URL as is.
	Hostname string
	Username string
	Password string
	// APIKey skips keygen when set.
	APIKey   string
	Insecure bool
	Timeout  time.Duration
}

// Client talks to the PAN-OS XML API.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client

	mu     sync.Mutex
	apiKey string
}

// NewClient creates a client whose HTTP transport is instrumented with
// OpenTelemetry.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := baseURL(cfg.Hostname)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed management certificates
	}

	return &Client{
		baseURL:  base,
		username: cfg.Username,
		password: cfg.Password,
		apiKey:   cfg.APIKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}, nil
}

func baseURL(hostname string) (string, error) {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return "", errors.New("panos: hostname is required")
	}
	if !strings.Contains(hostname, "://") {
		hostname = "https://" + hostname
	}
	u, err := url.Parse(hostname)
	if err != nil {
		return "", fmt.Errorf("panos: invalid hostname %q: %w", hostname, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("panos: invalid hostname %q", hostname)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

// Host returns the base URL the client talks to.
func (c *Client) Host() string {
	return c.baseURL
}

// envelope is the part of every API response the client inspects itself.
type envelope struct {
	XMLName    xml.Name  `xml:"response"`
	Status     string    `xml:"status,attr"`
	Code       string    `xml:"code,attr"`
	Msgs       []message `xml:"msg"`
	ResultMsgs []message `xml:"result>msg"`
}

type message struct {
	Text  string   `xml:",chardata"`
	Lines []string `xml:"line"`
}

func (e *envelope) messages() []string {
	var out []string
	for _, m := range append(e.Msgs, e.ResultMsgs...) {
		if t := strings.TrimSpace(m.Text); t != "" {
			out = append(out, t)
		}
		for _, l := range m.Lines {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, l)
			}
		}
	}
	return out
}

type keygenResponse struct {
	Key string `xml:"result>key"`
}

// Keygen exchanges the configured credentials for an API key and stores it
// on the client.
func (c *Client) Keygen(ctx context.Context) (string, error) {
	if c.username == "" || c.password == "" {
		return "", ErrNoCredentials
	}

	form := url.Values{}
	form.Set("type", "keygen")
	form.Set("user", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build keygen request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out keygenResponse
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("keygen: %w", err)
	}
	if out.Key == "" {
		return "", errors.New("keygen: response did not contain a key")
	}

	c.mu.Lock()
	c.apiKey = out.Key
	c.mu.Unlock()
	return out.Key, nil
}

func (c *Client) key(ctx context.Context) (string, error) {
	c.mu.Lock()
	key := c.apiKey
	c.mu.Unlock()
	if key != "" {
		return key, nil
	}
	return c.Keygen(ctx)
}

// Op runs an operational command and decodes the full response into out.
// out's field tags are relative to the <response> element, e.g.
// `xml:"result>system>hostname"`.
func (c *Client) Op(ctx context.Context, cmd string, out any) error {
	key, err := c.key(ctx)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("type", "op")
	q.Set("cmd", cmd)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPath+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build op request: %w", err)
	}
	req.Header.Set("X-PAN-KEY", key)

	if err := c.do(req, out); err != nil {
		return fmt.Errorf("op %s: %w", cmd, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if env.Status != statusSuccess {
		return &APIError{
			HTTPStatus: resp.StatusCode,
			Status:     env.Status,
			Code:       env.Code,
			Messages:   env.messages(),
		}
	}

	if out == nil {
		return nil
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
