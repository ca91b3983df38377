package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"

	"github.com/givehub/console/core"
)

const maxErrorBody = 4 << 10

// Client talks JSON to the GiveHub API. Credentials are session cookies kept in the client's jar,
// so every request carries them.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	navigator core.Navigator
	logger    core.Logger
}

// ClientOptions configures client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	Navigator  core.Navigator
	Logger     core.Logger
	Timeout    time.Duration
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client. A cookie jar is added to it if it has none.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithNavigator installs the navigator the 401 interceptor redirects with.
func WithNavigator(nav core.Navigator) ClientOption {
	return func(opts *ClientOptions) {
		opts.Navigator = nav
	}
}

func WithLogger(logger core.Logger) ClientOption {
	return func(opts *ClientOptions) {
		opts.Logger = logger
	}
}

// WithTimeout sets the HTTP client timeout. Zero keeps the client default.
func WithTimeout(d time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.Timeout = d
	}
}

func NewClient(baseURL string, optFns ...ClientOption) (*Client, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(baseURL, "baseURL"),
	).Check(); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing base URL")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("invalid base URL %q", baseURL)
	}

	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.HTTPClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrap(err, "creating cookie jar")
		}
		opts.HTTPClient.Jar = jar
	}
	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}

	return &Client{
		baseURL:   base,
		http:      opts.HTTPClient,
		navigator: opts.Navigator,
		logger:    opts.Logger,
	}, nil
}

// BaseURL returns the API root all paths are resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL()
	u.Path = u.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Do sends one request and decodes the JSON response into out (if not nil).
// Every failure is returned as a *core.TransportError; nothing is retried.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return core.NewTransportError(0, "encoding request", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), rdr)
	if err != nil {
		return core.NewTransportError(0, "building request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", map[string]interface{}{"method": method, "path": path}, err)
		return core.NewTransportError(0, "", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.logger.Debug("api request", map[string]interface{}{"method": method, "path": path, "status": resp.StatusCode})

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessionExpired()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.NewTransportError(resp.StatusCode, errorMessage(resp.Body), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewTransportError(resp.StatusCode, "malformed response body", err)
	}
	return nil
}

// sessionExpired is the process-wide 401 interceptor: it sends the user to the login screen
// unless they are already there.
func (c *Client) sessionExpired() {
	if c.navigator == nil {
		return
	}
	if c.navigator.Location() == core.LoginPath {
		return
	}
	c.navigator.Redirect(core.LoginPath)
}

func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
