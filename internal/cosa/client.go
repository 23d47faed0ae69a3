package cosa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
)

// Client fetches documents and artifacts from one build stream.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a Client for the build stream at baseURL.
// A trailing slash is added to the base path so relative paths resolve below it.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, repoerrors.NewConfigError("stream", fmt.Errorf("%w: %w", repoerrors.ErrInvalidURL, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, repoerrors.NewConfigError("stream",
			fmt.Errorf("%w: unsupported scheme %q in %s", repoerrors.ErrInvalidURL, u.Scheme, baseURL))
	}
	if u.Host == "" {
		return nil, repoerrors.NewConfigError("stream", repoerrors.ErrMissingHost).WithMessage(baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		u.RawPath = ""
	}
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		base:       u,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// URL resolves path segments against the base URL, escaping each segment.
func (c *Client) URL(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	ref := &url.URL{
		Path:    strings.Join(segments, "/"),
		RawPath: strings.Join(escaped, "/"),
	}
	return c.base.ResolveReference(ref).String()
}

// Builds fetches and validates builds.json.
func (c *Client) Builds(ctx context.Context) (*Builds, error) {
	var builds Builds
	if err := c.getJSON(ctx, "builds", c.URL("builds.json"), &builds); err != nil {
		return nil, err
	}
	return &builds, nil
}

// BuildMeta fetches and validates <id>/<arch>/meta.json.
func (c *Client) BuildMeta(ctx context.Context, id, arch string) (*BuildMeta, error) {
	var meta BuildMeta
	if err := c.getJSON(ctx, "meta", c.URL(id, arch, "meta.json"), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ArtifactURL returns the URL of an artifact of a build.
func (c *Client) ArtifactURL(id, arch, name string) string {
	return c.URL(id, arch, name)
}

// OpenArtifact starts a streaming read of an artifact. The returned length is
// the Content-Length the server declared, or -1 when unknown. The caller
// must close the body.
func (c *Client) OpenArtifact(ctx context.Context, id, arch, name string) (io.ReadCloser, int64, error) {
	target := c.ArtifactURL(id, arch, name)

	resp, cancel, err := c.get(ctx, "artifact", target)
	if err != nil {
		return nil, 0, err
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, resp.ContentLength, nil
}

type validator interface {
	Validate() error
}

func (c *Client) getJSON(ctx context.Context, op, target string, v validator) error {
	resp, cancel, err := c.get(ctx, op, target)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(v); err != nil {
		if ctx.Err() != nil {
			return repoerrors.NewFetchError(op, target, err)
		}
		return repoerrors.NewDecodeError(op, target, fmt.Errorf("%w: %w", repoerrors.ErrSchemaMismatch, err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if ctx.Err() != nil {
			return repoerrors.NewFetchError(op, target, ctx.Err())
		}
		return repoerrors.NewDecodeError(op, target,
			fmt.Errorf("%w: trailing data after document", repoerrors.ErrSchemaMismatch))
	}
	if err := v.Validate(); err != nil {
		return repoerrors.NewDecodeError(op, target, err)
	}
	return nil
}

// get issues a GET and checks the status. On success the caller owns the
// response body and must call cancel once done with it.
func (c *Client) get(ctx context.Context, op, target string) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, nil, repoerrors.NewFetchError(op, target, err)
	}

	c.logger.Debug("fetching", "url", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, repoerrors.NewFetchError(op, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, nil, repoerrors.NewFetchError(op, target,
			fmt.Errorf("%w: %s", repoerrors.ErrUnexpectedStatus, resp.Status))
	}

	return resp, cancel, nil
}

// cancelBody releases the request context when the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	defer b.cancel()
	//nolint:wrapcheck // io.Closer contract
	return b.ReadCloser.Close()
}
