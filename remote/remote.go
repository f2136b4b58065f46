package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Authority is the contract a remote store/db service exposes: session
// login with credentials, session minting from a long-lived master key,
// and the account endpoints password changes propagate through.
type Authority interface {
	Register(ctx context.Context, url, username, password string) error
	Login(ctx context.Context, url, username, password string, scopes []string) (string, error)
	ChangePassword(ctx context.Context, url, sid, password, newPassword string) error
	Logout(ctx context.Context, url, sid string) error
	MintSession(ctx context.Context, url, key string, scopes []string) (string, error)
}

type HTTPAuthority struct {
	client *http.Client
}

// NewHTTPAuthority builds an Authority over plain HTTP. The timeout bounds
// every outbound call; remote latency is the only externally-controlled
// latency in the system and must not stall request handling indefinitely.
func NewHTTPAuthority(timeout time.Duration) *HTTPAuthority {
	return &HTTPAuthority{
		client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPAuthority) Register(ctx context.Context, url, username, password string) error {
	_, err := h.post(ctx, url+"/auth/register", map[string]any{
		"username": username,
		"password": password,
	})
	return err
}

func (h *HTTPAuthority) Login(ctx context.Context, url, username, password string, scopes []string) (string, error) {
	body := map[string]any{
		"username": username,
		"password": password,
	}
	if len(scopes) > 0 {
		body["scopes"] = scopes
	}
	return h.post(ctx, url+"/auth/login", body)
}

func (h *HTTPAuthority) ChangePassword(ctx context.Context, url, sid, password, newPassword string) error {
	_, err := h.post(ctx, url+"/auth/change-pass?sid="+sid, map[string]any{
		"password": password,
		"newpass":  newPassword,
	})
	return err
}

func (h *HTTPAuthority) Logout(ctx context.Context, url, sid string) error {
	_, err := h.post(ctx, url+"/auth/logout?sid="+sid, nil)
	return err
}

func (h *HTTPAuthority) MintSession(ctx context.Context, url, key string, scopes []string) (string, error) {
	return h.post(ctx, url+"/auth/mint-session", map[string]any{
		"key":    key,
		"scopes": scopes,
	})
}

func (h *HTTPAuthority) post(ctx context.Context, url string, body any) (string, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return "", err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("remote %s returned %d: %s", url, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// Session endpoints respond with the token either as plain text or as a
	// JSON-encoded string.
	token := strings.TrimSpace(string(respBody))
	token = strings.Trim(token, `"`)
	return token, nil
}
