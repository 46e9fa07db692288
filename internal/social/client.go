package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sleighlabs/nicelist/internal/setup/config"
	"go.uber.org/zap"
)

var (
	// ErrProfileNotFound indicates the handle has no profile upstream.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrRateLimited indicates upstream throttling; the caller may retry later.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrMalformedResponse indicates an unexpected shape from the post source.
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrRequestTimeout indicates the upstream call exceeded the transport deadline.
	ErrRequestTimeout = errors.New("upstream request timed out")
	// ErrUpstreamStatus indicates an unexpected HTTP status from upstream.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
)

// DefaultBaseURL is the socialdata.tools API root.
const DefaultBaseURL = "https://api.socialdata.tools"

// Client fetches public profiles and posts from the socialdata.tools API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a socialdata.tools client with a bounded request timeout.
func NewClient(cfg *config.Social, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("social"),
	}
}

// FetchProfile retrieves basic profile metadata for a handle.
func (c *Client) FetchProfile(ctx context.Context, handle string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/twitter/user/%s", c.baseURL, url.PathEscape(handle))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, handle)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: fetching profile %s", ErrRateLimited, handle)
	default:
		return nil, fmt.Errorf("%w: %d fetching profile %s", ErrUpstreamStatus, resp.StatusCode, handle)
	}

	var user userResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decoding profile: %w", ErrMalformedResponse, err)
	}

	c.logger.Debug("Fetched profile",
		zap.String("handle", handle),
		zap.String("displayName", user.Name))

	return &Profile{
		Handle:      handle,
		DisplayName: user.Name,
		AvatarURL:   user.ProfileImageURL,
	}, nil
}

// FetchPosts retrieves the latest posts for a handle, newest-first.
// The upstream ordering is preserved as-is.
func (c *Client) FetchPosts(ctx context.Context, handle string) ([]Post, error) {
	params := url.Values{}
	params.Set("query", "from:"+handle)
	params.Set("type", "Latest")

	endpoint := fmt.Sprintf("%s/twitter/search?%s", c.baseURL, params.Encode())

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: fetching posts for %s", ErrRateLimited, handle)
	}

	var search searchResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %w", ErrMalformedResponse, err)
	}

	// The API reports failures inside a 200 response as {status, message}
	if search.Status != "" {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, search.Message)
	}

	if search.Tweets == nil {
		return nil, fmt.Errorf("%w: no tweets field in response (status %d)", ErrMalformedResponse, resp.StatusCode)
	}

	posts := make([]Post, 0, len(search.Tweets))
	for i := range search.Tweets {
		posts = append(posts, search.Tweets[i].toPost())
	}

	c.logger.Debug("Fetched posts",
		zap.String("handle", handle),
		zap.Int("count", len(posts)))

	return posts, nil
}

// get performs an authenticated GET request, mapping transport deadline
// failures to ErrRequestTimeout.
func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrRequestTimeout, err)
		}

		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
