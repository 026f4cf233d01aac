package feature_repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/meysamhadeli/assemble/feature_repository/contracts"
	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/meysamhadeli/assemble/slicer"
	"github.com/meysamhadeli/assemble/submission"
	"github.com/pterm/pterm"
)

const (
	defaultBaseURL          = "http://localhost:8888/assemble"
	defaultRequestTimeout   = 30 * time.Second
	defaultAuthPollInterval = 500 * time.Millisecond
	defaultAuthTimeout      = 5 * time.Minute
	featureCodeCacheSize    = 256
)

var (
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrAuthTimeout          = errors.New("timed out waiting for authentication")
)

// ResponseError is returned when the service answers with a non-success status.
type ResponseError struct {
	StatusCode int
	Message    string
	Traceback  string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status code '%d'", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status code '%d' - %s", e.StatusCode, e.Message)
}

// ClientConfig configures the feature-repository client.
type ClientConfig struct {
	BaseURL          string
	Token            string
	RequestTimeout   time.Duration
	AuthPollInterval time.Duration
	AuthTimeout      time.Duration
	// OnAuthorize receives the URL the author has to open in a browser.
	OnAuthorize func(authorizeURL string)
	Logger      *pterm.Logger
	HTTPClient  *http.Client
}

// Client talks to the feature-repository service.
type Client struct {
	baseURL          string
	token            string
	authPollInterval time.Duration
	authTimeout      time.Duration
	onAuthorize      func(string)
	httpClient       *http.Client
	codeCache        *lru.Cache[string, string]
	logger           *pterm.Logger
}

var (
	_ contracts.IFeatureRepository = (*Client)(nil)
	_ contracts.IAuthenticator     = (*Client)(nil)
)

// NewClient initializes a client, filling unset fields with defaults.
func NewClient(config ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.RequestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	authPollInterval := config.AuthPollInterval
	if authPollInterval <= 0 {
		authPollInterval = defaultAuthPollInterval
	}
	authTimeout := config.AuthTimeout
	if authTimeout <= 0 {
		authTimeout = defaultAuthTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}

	codeCache, err := lru.New[string, string](featureCodeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("error creating feature code cache: %w", err)
	}

	return &Client{
		baseURL:          baseURL,
		token:            config.Token,
		authPollInterval: authPollInterval,
		authTimeout:      authTimeout,
		onAuthorize:      config.OnAuthorize,
		httpClient:       httpClient,
		codeCache:        codeCache,
		logger:           logger,
	}, nil
}

// EndpointURL joins an endpoint to the base URL.
func (c *Client) EndpointURL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) Submit(ctx context.Context, code string) (*models.SubmissionResponse, error) {
	var response models.SubmissionResponse
	if err := c.request(ctx, http.MethodPost, "submit", models.CodeContentRequest{CodeContent: code}, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) GetSubmission(ctx context.Context) (*models.SubmissionResponse, error) {
	var response models.SubmissionResponse
	if err := c.request(ctx, http.MethodGet, "submit", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ListFeatures returns the existing features in the order the service lists them.
func (c *Client) ListFeatures(ctx context.Context) ([]models.FeatureRecord, error) {
	var response models.FeatureIndex
	if err := c.request(ctx, http.MethodGet, "features", nil, &response); err != nil {
		return nil, err
	}
	if response == nil {
		return []models.FeatureRecord{}, nil
	}
	return response, nil
}

// FeatureCode fetches the source of an existing feature. Results are memoised for the life of the client.
func (c *Client) FeatureCode(ctx context.Context, id string) (string, error) {
	if code, ok := c.codeCache.Get(id); ok {
		return code, nil
	}

	var response models.FeatureCode
	if err := c.request(ctx, http.MethodGet, "features/"+url.PathEscape(id), nil, &response); err != nil {
		return "", err
	}

	c.codeCache.Add(id, response.Code)
	return response.Code, nil
}

// Inspect returns the candidates in the order the analysis produced them, or the analysis failure reported by the service.
func (c *Client) Inspect(ctx context.Context, code string) ([]models.NewFeatureCandidate, *slicer.AnalysisError, error) {
	var response models.CandidateList
	err := c.request(ctx, http.MethodPost, "inspect", models.CodeContentRequest{CodeContent: code}, &response)

	var responseErr *ResponseError
	if errors.As(err, &responseErr) {
		c.logger.Debug("inspect reported an analysis failure", c.logger.Args("status", responseErr.StatusCode))
		message := responseErr.Message
		if message == "" {
			message = responseErr.Error()
		}
		return nil, &slicer.AnalysisError{Message: message, Traceback: responseErr.Traceback}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if response == nil {
		return []models.NewFeatureCandidate{}, nil, nil
	}
	return response, nil, nil
}

func (c *Client) Status(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "status", nil, nil)
}

func (c *Client) Version(ctx context.Context) (*models.VersionInfo, error) {
	var response models.VersionInfo
	if err := c.request(ctx, http.MethodGet, "version", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	var response models.AuthenticatedResponse
	if err := c.request(ctx, http.MethodGet, "auth/authenticated", nil, &response); err != nil {
		return false, err
	}
	return response.Result, nil
}

// AuthorizeURL is the page that starts the browser authorization flow.
func (c *Client) AuthorizeURL() string {
	return c.EndpointURL("auth/authorize")
}

func (c *Client) RequestToken(ctx context.Context) error {
	return c.request(ctx, http.MethodPost, "auth/token", nil, nil)
}

// BeginInteractiveAuth hands the authorize URL to the author, asks the service for a token
// and waits until the service reports the session as authenticated.
func (c *Client) BeginInteractiveAuth(ctx context.Context) error {
	authenticated, err := c.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if authenticated {
		return ErrAlreadyAuthenticated
	}

	if c.onAuthorize != nil {
		c.onAuthorize(c.AuthorizeURL())
	}

	ctx, cancel := context.WithTimeout(ctx, c.authTimeout)
	defer cancel()

	go func() {
		if err := c.RequestToken(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("token exchange failed", c.logger.Args("error", err))
		}
	}()

	poller := submission.Poller{Interval: c.authPollInterval}
	attempts, err := poller.PollUntil(ctx, c.IsAuthenticated)
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrAuthTimeout
	}
	if err != nil {
		return err
	}

	c.logger.Debug("authenticated", c.logger.Args("attempts", attempts))
	return nil
}

func (c *Client) request(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshalling request body: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.EndpointURL(endpoint), reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	c.logger.Trace("sending request", c.logger.Args("method", method, "endpoint", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("request canceled: %w", err)
		}
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		responseErr := &ResponseError{StatusCode: resp.StatusCode}
		var errorBody models.ErrorBody
		if json.Unmarshal(data, &errorBody) == nil {
			responseErr.Message = errorBody.Message
			responseErr.Traceback = errorBody.Traceback
		}
		return responseErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error unmarshalling response from '%s': %w", endpoint, err)
	}

	return nil
}
