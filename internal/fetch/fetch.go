// Package fetch downloads recorded test bundles from the MuukTest service
// and optionally runs them.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/internal/config"
)

const (
	tokenRoute    = "/generate_token_executer"
	downloadRoute = "/download_byproperty/"
)

// ErrFieldNotAllowed is returned for a property the service cannot search by.
var ErrFieldNotAllowed = errors.New("is not an allowed property")

// Field is the test property a bundle is searched by.
type Field string

const (
	FieldTag     Field = "tag"
	FieldName    Field = "name"
	FieldHashtag Field = "hashtag"
)

// AllowedFields lists the searchable properties.
var AllowedFields = []Field{FieldTag, FieldName, FieldHashtag}

// searchValue validates the field and returns the value as the service expects it.
func (f Field) searchValue(value string) (string, error) {
	switch f {
	case FieldHashtag:
		return "#" + value, nil
	case FieldTag, FieldName:
		return value, nil
	default:
		return "", fmt.Errorf("%s: %w", f, ErrFieldNotAllowed)
	}
}

// Request describes one download.
type Request struct {
	Field  Field
	Value  string
	NoExec bool
}

// Result summarizes a completed download.
type Result struct {
	Archive   string
	TestRoute string
	Files     int
	Executed  bool
}

// CommandRunner runs the test command once the bundle is extracted.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Client talks to the test bundle service.
type Client struct {
	cfg        config.FetchConfig
	httpClient *http.Client
	runner     CommandRunner
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the configured timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCommandRunner replaces the runner that executes the test command.
func WithCommandRunner(r CommandRunner) Option {
	return func(c *Client) { c.runner = r }
}

// NewClient creates a client for the configured service.
func NewClient(cfg config.FetchConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		runner:     execRunner(os.Stdout, os.Stderr),
		logger:     logger.Named("fetch"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run downloads the bundle matching req into the test route, replacing the
// previous one, and runs the test command unless req.NoExec is set.
func (c *Client) Run(ctx context.Context, req Request) (*Result, error) {
	value, err := req.Field.searchValue(req.Value)
	if err != nil {
		return nil, err
	}
	logger := c.logger.With(zap.String("property", string(req.Field)), zap.String("value", value))

	token := c.Token(ctx)

	archive := expand(c.cfg.ArchivePath)
	route := expand(c.cfg.TestRoute)
	if err := resetWorkspace(archive, route); err != nil {
		return nil, err
	}

	if err := c.download(ctx, token, req.Field, value, archive); err != nil {
		return nil, err
	}
	files, err := extract(archive, route)
	if err != nil {
		return nil, err
	}
	logger.Info("Test bundle extracted", zap.String("route", route), zap.Int("files", files))

	result := &Result{Archive: archive, TestRoute: route, Files: files}
	if req.NoExec || len(c.cfg.TestCommand) == 0 {
		return result, nil
	}

	logger.Info("Running tests", zap.Strings("command", c.cfg.TestCommand))
	if err := c.runner(ctx, c.cfg.TestCommand[0], c.cfg.TestCommand[1:]...); err != nil {
		return result, fmt.Errorf("test command failed: %w", err)
	}
	result.Executed = true
	return result, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Token exchanges the key file for a bearer token. Failures are logged and
// yield an empty token; the download is still attempted.
func (c *Client) Token(ctx context.Context) string {
	token, err := c.requestToken(ctx)
	if err != nil {
		c.logger.Warn("Could not obtain an access token, continuing without it. Download the key file from the MuukTest portal", zap.Error(err))
		return ""
	}
	c.logTokenExpiry(token)
	return token
}

func (c *Client) requestToken(ctx context.Context) (string, error) {
	key, err := os.ReadFile(expand(c.cfg.KeyFile))
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}

	form := url.Values{"key": {string(key)}}
	resp, err := c.postForm(ctx, tokenRoute, "", form)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("token response carried no access_token")
	}
	return payload.AccessToken, nil
}

// logTokenExpiry reads the expiry of the token without verifying it.
func (c *Client) logTokenExpiry(token string) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		c.logger.Debug("Access token is not a JWT", zap.Error(err))
		return
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		c.logger.Debug("Access token has no expiration")
		return
	}
	c.logger.Debug("Obtained access token", zap.Time("expires_at", exp.Time), zap.Bool("expired", exp.Before(time.Now())))
}

func (c *Client) download(ctx context.Context, token string, field Field, value, archive string) error {
	form := url.Values{"property": {string(field)}, "value": {value, ""}}
	resp, err := c.postForm(ctx, downloadRoute, token, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", archive, err)
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to write archive: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close archive: %w", closeErr)
	}
	c.logger.Debug("Downloaded test bundle", zap.String("archive", archive), zap.Int64("bytes", n))
	return nil
}

// postForm sends an url-encoded form. Every route but the token exchange
// carries the bearer header, even with an empty token.
func (c *Client) postForm(ctx context.Context, route, token string, form url.Values) (*http.Response, error) {
	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + route
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if route != tokenRoute {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", route, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned status %d: %s", route, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// resetWorkspace removes the previous archive and test route.
func resetWorkspace(archive, route string) error {
	if err := os.Remove(archive); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove old archive: %w", err)
	}
	if err := os.RemoveAll(route); err != nil {
		return fmt.Errorf("failed to clear test route: %w", err)
	}
	if err := os.MkdirAll(route, 0o755); err != nil {
		return fmt.Errorf("failed to create test route: %w", err)
	}
	return nil
}

func execRunner(stdout, stderr io.Writer) CommandRunner {
	return func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		return cmd.Run()
	}
}

func expand(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
