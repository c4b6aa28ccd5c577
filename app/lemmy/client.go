package lemmy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotLoggedIn is returned by authenticated calls made before Login.
var ErrNotLoggedIn = errors.New("not logged in")

// Client talks to a Lemmy instance over its v3 HTTP API. Requests that fail
// on transport or upstream errors are retried with exponential backoff; an
// expired token triggers a transparent re-login.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string

	username  string
	password  string
	community string

	jwt string

	maxRetries int
	retryDelay time.Duration
	backoff    float64
}

func NewClient(instanceURL, username, password, community, userAgent string, httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(instanceURL, "/") + "/api/v3",
		userAgent:  userAgent,
		username:   username,
		password:   password,
		community:  community,
		maxRetries: 3,
		retryDelay: 60 * time.Second,
		backoff:    2,
	}
}

// Login authenticates and stores the session token for later calls.
func (c *Client) Login(ctx context.Context) error {
	payload := loginRequest{UsernameOrEmail: c.username, Password: c.password}

	var resp loginResponse
	if err := c.request(ctx, "POST", "user/login", nil, payload, &resp); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	if resp.JWT == "" {
		return errors.New("login succeeded but no token was returned")
	}

	c.jwt = resp.JWT
	slog.Info("Logged in to Lemmy", "user", c.username)
	return nil
}

// GetCommunityID resolves the configured community name to its numeric ID.
func (c *Client) GetCommunityID(ctx context.Context) (int64, error) {
	if c.jwt == "" {
		return 0, ErrNotLoggedIn
	}

	params := url.Values{"name": {c.community}}

	var resp communityResponse
	if err := c.request(ctx, "GET", "community", params, nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to resolve community %q: %w", c.community, err)
	}

	id := resp.CommunityView.Community.ID
	if id == 0 {
		return 0, fmt.Errorf("community %q not found", c.community)
	}

	return id, nil
}

// CreatePost publishes a link post and returns it.
func (c *Client) CreatePost(ctx context.Context, communityID int64, name, body, linkURL string) (*Post, error) {
	if c.jwt == "" {
		return nil, ErrNotLoggedIn
	}

	payload := createPostRequest{
		CommunityID: communityID,
		Name:        name,
		Body:        body,
		URL:         linkURL,
	}

	var resp postResponse
	if err := c.request(ctx, "POST", "post", nil, payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	post := resp.PostView.Post
	slog.Info("Created post", "post_id", post.ID, "title", name)
	return &post, nil
}

// GetPosts lists the community's posts, newest first.
func (c *Client) GetPosts(ctx context.Context, communityID int64, limit int) ([]Post, error) {
	if c.jwt == "" {
		return nil, ErrNotLoggedIn
	}

	params := url.Values{
		"community_id": {fmt.Sprintf("%d", communityID)},
		"limit":        {fmt.Sprintf("%d", limit)},
		"sort":         {"New"},
	}

	var resp postListResponse
	if err := c.request(ctx, "GET", "post/list", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]Post, 0, len(resp.Posts))
	for _, pv := range resp.Posts {
		posts = append(posts, pv.Post)
	}

	return posts, nil
}

// ExtractVideoID pulls the YouTube video ID out of a post URL. Non-YouTube
// URLs yield an empty string.
func ExtractVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch {
	case host == "youtu.be":
		return strings.Trim(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com") && u.Path == "/watch":
		return u.Query().Get("v")
	}

	return ""
}

func (c *Client) request(ctx context.Context, method, endpoint string, params url.Values, payload, out any) error {
	requestURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.retryDelay) * math.Pow(c.backoff, float64(attempt-1)))
			slog.Info("Retrying Lemmy request", "endpoint", endpoint, "attempt", attempt+1, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		status, err := c.doRequest(ctx, method, requestURL, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err

		// A stale token is recoverable within the same attempt budget.
		if status == http.StatusUnauthorized && endpoint != "user/login" {
			slog.Warn("Session token rejected, logging in again")
			if loginErr := c.Login(ctx); loginErr != nil {
				return loginErr
			}
			continue
		}

		if status >= 400 && status < 500 {
			break
		}
	}

	return lastErr
}

func (c *Client) doRequest(ctx context.Context, method, requestURL string, payload, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
