package resources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"
)

// Timeouts for remote fetches. Rendering must not stall on a slow
// peer; the fallback path produces a perfectly usable link instead.
const (
	// FetchTimeout bounds the whole request.
	FetchTimeout = 1 * time.Second
	// IdleTimeout aborts a connection over which no bytes arrive for
	// the interval, even if it is nominally alive.
	IdleTimeout = 100 * time.Millisecond
)

// HTTPHandler reads http: and https: URLs.
type HTTPHandler struct {
	// Limit is the maximum number of bytes to read. Zero means
	// MaxResourceSize.
	Limit  int64
	Client *http.Client
	// Idle overrides IdleTimeout when positive. Tests use it.
	Idle time.Duration
}

// NewHTTPHandler builds a handler with the default client. Proxy
// settings follow the standard HTTP_PROXY, HTTPS_PROXY and NO_PROXY
// environment conventions.
func NewHTTPHandler(userAgent string) *HTTPHandler {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	return &HTTPHandler{
		Client: &http.Client{
			Timeout:   FetchTimeout,
			Transport: &userAgentTransport{agent: userAgent, next: transport},
		},
	}
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent != "" {
		req.Header.Set("User-Agent", t.agent)
	}
	return t.next.RoundTrip(req)
}

func (h *HTTPHandler) limit() int64 {
	if h.Limit > 0 {
		return h.Limit
	}
	return MaxResourceSize
}

func (h *HTTPHandler) idle() time.Duration {
	if h.Idle > 0 {
		return h.Idle
	}
	return IdleTimeout
}

// idleWatchdogBody cancels the request context when no read completes
// within the idle interval. The next read then fails with a context
// cancellation, which the handler reports as a timeout.
type idleWatchdogBody struct {
	body  io.ReadCloser
	timer *time.Timer
	idle  time.Duration
}

func (b *idleWatchdogBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if err == nil {
		b.timer.Reset(b.idle)
	}
	return n, err
}

func (b *idleWatchdogBody) Close() error {
	b.timer.Stop()
	return b.body.Close()
}

func (h *HTTPHandler) Read(u *url.URL) (MimeData, error) {
	if err := filterSchemes(u, "http", "https"); err != nil {
		return MimeData{}, err
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return MimeData{}, &Error{Kind: KindIO, URL: u.String(), Err: err}
	}
	timer := time.AfterFunc(h.idle(), cancel)

	resp, err := client.Do(req)
	if err != nil {
		timer.Stop()
		return MimeData{}, h.classify(u, err)
	}
	body := &idleWatchdogBody{body: resp.Body, timer: timer, idle: h.idle()}
	defer body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return MimeData{}, &Error{
			Kind: KindIO,
			URL:  u.String(),
			Err:  fmt.Errorf("HTTP status %s", resp.Status),
		}
	}

	// Reject oversized responses up front when the server declares a
	// size, and stream against the cap otherwise so the payload is
	// never fully buffered before the check.
	if resp.ContentLength > h.limit() {
		return MimeData{}, &Error{
			Kind: KindTooLarge,
			URL:  u.String(),
			Err:  fmt.Errorf("declared size %d exceeds limit %d", resp.ContentLength, h.limit()),
		}
	}
	buf, err := io.ReadAll(io.LimitReader(body, h.limit()+1))
	if err != nil {
		return MimeData{}, h.classify(u, err)
	}
	if int64(len(buf)) > h.limit() {
		return MimeData{}, &Error{Kind: KindTooLarge, URL: u.String()}
	}

	mimeType := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if essence, _, err := mime.ParseMediaType(ct); err == nil {
			mimeType = essence
		}
	}
	return MimeData{MimeType: mimeType, Data: buf}, nil
}

func (h *HTTPHandler) classify(u *url.URL, err error) error {
	kind := KindIO
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		kind = KindTimeout
	}
	return &Error{Kind: kind, URL: u.String(), Err: err}
}
