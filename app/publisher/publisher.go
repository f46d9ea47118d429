package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const defaultGraphAPIURL = "https://graph.facebook.com/v21.0"

// ErrMissingCredentials indicates the Instagram account id or access
// token is absent. Publishing cannot proceed at all without them.
var ErrMissingCredentials = errors.New("instagram credentials not configured")

// Publisher posts finished reels through the Instagram Graph API using
// the two-step container flow: upload a media container, wait for
// processing, then publish it.
type Publisher struct {
	apiURL       string
	accountID    string
	appID        string
	appSecret    string
	httpClient   *http.Client
	userAgent    string
	pollInterval time.Duration
	maxPolls     int

	// tokenMu guards accessToken: RefreshToken runs on its own task and
	// can rewrite the token while a publish is in flight on another worker.
	tokenMu     sync.Mutex
	accessToken string
}

func New(accountID, accessToken, appID, appSecret string, httpClient *http.Client, userAgent string) *Publisher {
	return &Publisher{
		apiURL:       defaultGraphAPIURL,
		accountID:    accountID,
		accessToken:  accessToken,
		appID:        appID,
		appSecret:    appSecret,
		httpClient:   httpClient,
		userAgent:    userAgent,
		pollInterval: 5 * time.Second,
		maxPolls:     24,
	}
}

func (p *Publisher) token() string {
	p.tokenMu.Lock()
	defer p.tokenMu.Unlock()
	return p.accessToken
}

func (p *Publisher) setToken(token string) {
	p.tokenMu.Lock()
	p.accessToken = token
	p.tokenMu.Unlock()
}

// PublishReel uploads the video as a REELS container and publishes it.
// Returns the Instagram media id of the published post.
func (p *Publisher) PublishReel(ctx context.Context, videoPath, caption string) (string, error) {
	if p.accountID == "" || p.token() == "" {
		return "", ErrMissingCredentials
	}

	containerID, err := p.uploadContainer(ctx, videoPath, caption)
	if err != nil {
		return "", fmt.Errorf("container upload failed: %w", err)
	}
	slog.Debug("Media container created", "container_id", containerID)

	if err := p.waitForContainer(ctx, containerID); err != nil {
		return "", fmt.Errorf("container processing failed: %w", err)
	}

	postID, err := p.publishContainer(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("media publish failed: %w", err)
	}

	slog.Info("Reel published", "post_id", postID)
	return postID, nil
}

// RefreshToken exchanges the current access token for a fresh
// long-lived one.
func (p *Publisher) RefreshToken(ctx context.Context) (string, error) {
	current := p.token()
	if current == "" || p.appID == "" || p.appSecret == "" {
		return "", ErrMissingCredentials
	}

	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", p.appID)
	params.Set("client_secret", p.appSecret)
	params.Set("fb_exchange_token", current)

	req, err := http.NewRequestWithContext(ctx, "GET", p.apiURL+"/oauth/access_token?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := p.do(req, &body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned no token")
	}

	p.setToken(body.AccessToken)
	slog.Info("Access token refreshed", "expires_in_days", body.ExpiresIn/86400)
	return body.AccessToken, nil
}

func (p *Publisher) uploadContainer(ctx context.Context, videoPath, caption string) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video: %w", err)
	}
	defer file.Close()

	var form strings.Builder
	writer := multipart.NewWriter(&form)
	_ = writer.WriteField("media_type", "REELS")
	_ = writer.WriteField("caption", caption)
	_ = writer.WriteField("access_token", p.token())

	part, err := writer.CreateFormFile("video_file", filepath.Base(videoPath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/media", p.apiURL, p.accountID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.String()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", p.userAgent)

	var body struct {
		ID string `json:"id"`
	}
	if err := p.do(req, &body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", fmt.Errorf("container upload returned no id")
	}
	return body.ID, nil
}

func (p *Publisher) waitForContainer(ctx context.Context, containerID string) error {
	for attempt := 0; attempt < p.maxPolls; attempt++ {
		params := url.Values{}
		params.Set("fields", "status_code")
		params.Set("access_token", p.token())

		req, err := http.NewRequestWithContext(ctx, "GET",
			fmt.Sprintf("%s/%s?%s", p.apiURL, containerID, params.Encode()), nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", p.userAgent)

		var body struct {
			StatusCode string `json:"status_code"`
		}
		if err := p.do(req, &body); err != nil {
			return err
		}

		switch body.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("container entered status %s", body.StatusCode)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}

	return fmt.Errorf("container not ready after %d polls", p.maxPolls)
}

func (p *Publisher) publishContainer(ctx context.Context, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", p.token())

	endpoint := fmt.Sprintf("%s/%s/media_publish", p.apiURL, p.accountID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.userAgent)

	var body struct {
		ID string `json:"id"`
	}
	if err := p.do(req, &body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", fmt.Errorf("media publish returned no id")
	}
	return body.ID, nil
}

func (p *Publisher) do(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("graph api error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("graph api HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode graph api response: %w", err)
	}

	return nil
}
