package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError carries the identity provider's error code, e.g. EMAIL_EXISTS.
type APIError struct {
	Code string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth provider error: %s", e.Code)
}

// Client talks to a Firebase-style identity REST endpoint.
type Client struct {
	apiKey   string
	baseURL  string
	tokenURL string
	client   HTTPClient
	logger   zerolog.Logger
}

func NewClient(apiKey, baseURL, tokenURL string, httpClient HTTPClient, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "AuthClient").Logger()
	return &Client{apiKey: apiKey, baseURL: baseURL, tokenURL: tokenURL, client: httpClient, logger: logger}
}

// SignUp creates an account and returns its initial session.
func (c *Client) SignUp(ctx context.Context, email, password string) (models.Session, error) {
	return c.credentialCall(ctx, "accounts:signUp", email, password)
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	return c.credentialCall(ctx, "accounts:signInWithPassword", email, password)
}

func (c *Client) credentialCall(ctx context.Context, endpoint, email, password string) (models.Session, error) {
	payload, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return models.Session{}, err
	}

	reqURL := fmt.Sprintf("%s/%s?key=%s", c.baseURL, endpoint, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return models.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Session{}, fmt.Errorf("auth request: %w", err)
	}
	defer c.closeBody(resp.Body)

	var raw struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.Session{}, err
	}

	if raw.Error != nil {
		return models.Session{}, &APIError{Code: raw.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return models.Session{}, fmt.Errorf("auth provider error: status %s", resp.Status)
	}

	return models.Session{
		UserID:       raw.LocalID,
		Email:        raw.Email,
		IDToken:      raw.IDToken,
		RefreshToken: raw.RefreshToken,
		ExpiresAt:    expiry(raw.ExpiresIn),
	}, nil
}

// Refresh exchanges a refresh token for a fresh session.
func (c *Client) Refresh(ctx context.Context, session models.Session) (models.Session, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", session.RefreshToken)

	reqURL := fmt.Sprintf("%s/token?key=%s", c.tokenURL, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return models.Session{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Session{}, fmt.Errorf("token refresh request: %w", err)
	}
	defer c.closeBody(resp.Body)

	var raw struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		UserID       string `json:"user_id"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.Session{}, err
	}

	if raw.Error != nil {
		return models.Session{}, &APIError{Code: raw.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return models.Session{}, fmt.Errorf("auth provider error: status %s", resp.Status)
	}

	refreshed := session
	refreshed.UserID = raw.UserID
	refreshed.IDToken = raw.IDToken
	refreshed.RefreshToken = raw.RefreshToken
	refreshed.ExpiresAt = expiry(raw.ExpiresIn)
	return refreshed, nil
}

func expiry(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to close response body")
	}
}
