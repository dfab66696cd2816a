// Package fcm sends push notifications through the Firebase Cloud
// Messaging HTTP v1 API.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope is the OAuth2 scope required to send messages.
const Scope = "https://www.googleapis.com/auth/firebase.messaging"

// DefaultEndpoint is the base URL of the FCM v1 API.
const DefaultEndpoint = "https://fcm.googleapis.com"

// TopicAll receives every announcement.
const TopicAll = "all"

// ErrNotConfigured is returned by Send when no project is configured.
var ErrNotConfigured = errors.New("fcm: not configured")

// Notification is the visible part of a push message.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Message is an FCM v1 message addressed to exactly one of Topic or Token.
type Message struct {
	Topic        string            `json:"topic,omitempty"`
	Token        string            `json:"token,omitempty"`
	Notification Notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *androidConfig    `json:"android,omitempty"`
	APNS         *apnsConfig       `json:"apns,omitempty"`
}

type androidConfig struct {
	Priority string `json:"priority"`
}

type apnsConfig struct {
	Payload struct {
		APS struct {
			Sound string `json:"sound"`
		} `json:"aps"`
	} `json:"payload"`
}

// UpstreamError is a non-2xx answer from FCM.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fcm: upstream status %d: %s", e.Status, e.Body)
}

// Config selects the project, credentials and endpoint.
type Config struct {
	ProjectID string
	// CredentialsJSON wins over CredentialsFile. With neither set,
	// Application Default Credentials are used.
	CredentialsJSON string
	CredentialsFile string
	Endpoint        string
}

// Client sends messages for one Firebase project.
type Client struct {
	projectID string
	endpoint  string
	http      *http.Client
}

// New builds a Client whose HTTP transport attaches OAuth2 access tokens
// for Scope. ProjectID falls back to the one in the credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, errors.New("fcm: project id is required")
	}
	return NewWithHTTPClient(projectID, cfg.Endpoint, oauth2.NewClient(ctx, creds.TokenSource)), nil
}

// NewWithHTTPClient builds a Client on a caller-supplied HTTP client. The
// client is expected to authenticate requests itself.
func NewWithHTTPClient(projectID, endpoint string, hc *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		projectID: projectID,
		endpoint:  strings.TrimRight(endpoint, "/"),
		http:      hc,
	}
}

func loadCredentials(ctx context.Context, cfg Config) (*google.Credentials, error) {
	raw := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	if len(raw) == 0 && cfg.CredentialsFile != "" {
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("fcm: read credentials: %w", err)
		}
		raw = b
	}
	if len(raw) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, raw, Scope)
		if err != nil {
			return nil, fmt.Errorf("fcm: parse credentials: %w", err)
		}
		return creds, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, Scope)
	if err != nil {
		return nil, fmt.Errorf("fcm: default credentials: %w", err)
	}
	return creds, nil
}

// ProjectID returns the Firebase project messages are sent under.
func (c *Client) ProjectID() string {
	if c == nil {
		return ""
	}
	return c.projectID
}

// Send posts msg and returns the message name FCM assigned.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if c == nil || c.projectID == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]Message{"message": msg})
	if err != nil {
		return "", fmt.Errorf("fcm: encode message: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.endpoint, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fcm: send: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("fcm: decode response: %w", err)
	}
	return out.Name, nil
}
