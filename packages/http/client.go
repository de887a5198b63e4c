package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	neturl "net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the connect and total timeout, in seconds
	DefaultTimeout = 30
	// DiagnosticPrefix starts the line written to the diagnostics writer on failure
	DiagnosticPrefix = "cURL Error: "
)

// Client configures a transfer handle and runs one request at a time on it.
//
// Client-level settings (timeout, header capture, cookie path, insecure
// https) persist across requests. Per-request settings made with SetOpt and
// SetHeader live on the handle, which is released when a request finishes;
// the next call starts from a fresh handle.
//
// A Client is not safe for concurrent use.
type Client struct {
	engine Engine
	handle Handle
	// initErr holds a failed lazy handle init until the next Send.
	initErr error

	headers        []string
	defaultHeaders []string
	userAgent      string
	proxy          string
	maxRedirects   int

	timeout       int
	captureHeader bool
	cookiePath    string
	insecureHTTPS bool

	log         logrus.FieldLogger
	limiter     *rate.Limiter
	diagnostics io.Writer
}

type ClientOption func(*Client)

// NewClient creates a client with a freshly initialized handle.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		engine:       NewEngine(),
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		log:          logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func WithEngine(e Engine) ClientOption {
	return func(c *Client) {
		c.engine = e
	}
}

// WithTimeout sets the connect and total timeout in seconds. Non-positive
// values are ignored.
func WithTimeout(seconds int) ClientOption {
	return func(c *Client) {
		c.SetTimeout(seconds)
	}
}

func WithCookiePath(path string) ClientOption {
	return func(c *Client) {
		c.cookiePath = path
	}
}

// WithResponseHeader turns on header capture for every request.
func WithResponseHeader(capture bool) ClientOption {
	return func(c *Client) {
		c.captureHeader = capture
	}
}

// WithInsecureHTTPS disables TLS verification for any URL containing "https".
func WithInsecureHTTPS(insecure bool) ClientOption {
	return func(c *Client) {
		c.insecureHTTPS = insecure
	}
}

func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithRateLimit spaces requests at most perSecond apart. Zero disables it.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithDiagnostics writes a "cURL Error: <cause>" line to w for every failed request.
func WithDiagnostics(w io.Writer) ClientOption {
	return func(c *Client) {
		c.diagnostics = w
	}
}

// WithDefaultHeaders sets header lines sent before those given to SetHeader.
func WithDefaultHeaders(lines []string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders = append(c.defaultHeaders, lines...)
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithProxy routes every request through the proxy at rawURL.
func WithProxy(rawURL string) ClientOption {
	return func(c *Client) {
		c.proxy = rawURL
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// init replaces the handle with a fresh one from the engine.
func (c *Client) init() error {
	c.release()
	c.initErr = nil

	h, err := c.engine.Init()
	if err != nil {
		return &RequestError{Kind: KindConstruction, Err: err}
	}
	if c.userAgent != "" {
		h.SetOpt(OptUserAgent, c.userAgent)
	}
	if c.proxy != "" {
		h.SetOpt(OptProxy, c.proxy)
	}
	h.SetOpt(OptMaxRedirs, c.maxRedirects)
	c.handle = h
	return nil
}

// acquire returns the live handle, initializing one after a release.
func (c *Client) acquire() Handle {
	if c.handle == nil && c.initErr == nil {
		if err := c.init(); err != nil {
			c.initErr = err
		}
	}
	return c.handle
}

func (c *Client) release() {
	c.headers = nil
	if c.handle == nil {
		return
	}
	if err := c.handle.Close(); err != nil {
		c.log.WithError(err).Warn("Closing transfer handle")
	}
	c.handle = nil
}

// SetOpt passes an option straight to the handle. Values are not checked
// until the request is sent. OptHTTPHeader set here is replaced when
// SetHeader or default headers are in use.
func (c *Client) SetOpt(opt Option, value any) *Client {
	if h := c.acquire(); h != nil {
		h.SetOpt(opt, value)
	}
	return c
}

// SetHeader replaces the request header set with "Name: value" lines.
// Calling it with no lines clears the headers.
func (c *Client) SetHeader(lines ...string) *Client {
	c.acquire()
	c.headers = append([]string{}, lines...)
	return c
}

// IncludeResponseHeader makes results carry the raw response header block.
// It stays on for later requests.
func (c *Client) IncludeResponseHeader() *Client {
	c.captureHeader = true
	return c
}

// SetTimeout sets the connect and total timeout in seconds. A non-positive
// value leaves the current timeout in place.
func (c *Client) SetTimeout(seconds int) *Client {
	if seconds > 0 {
		c.timeout = seconds
	}
	return c
}

// SetCookiePath reads and stores cookies in the file at path. An empty path
// disables cookie persistence.
func (c *Client) SetCookiePath(path string) *Client {
	c.cookiePath = path
	return c
}

func (c *Client) Timeout() int {
	return c.timeout
}

func (c *Client) CookiePath() string {
	return c.cookiePath
}

func (c *Client) CapturesResponseHeader() bool {
	return c.captureHeader
}

// Get requests rawURL with data appended as a query string.
func (c *Client) Get(ctx context.Context, rawURL string, data neturl.Values) (*Result, error) {
	return c.Send(ctx, AppendQuery(rawURL, data))
}

// Post sends data as multipart/form-data.
func (c *Client) Post(ctx context.Context, rawURL string, data neturl.Values) (*Result, error) {
	if data == nil {
		data = neturl.Values{}
	}
	return c.post(ctx, rawURL, data)
}

// PostRaw sends body unchanged, e.g. a JSON document.
func (c *Client) PostRaw(ctx context.Context, rawURL, body string) (*Result, error) {
	return c.post(ctx, rawURL, body)
}

// PostMultipart sends fields, including file uploads, as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, rawURL string, fields []FormField) (*Result, error) {
	return c.post(ctx, rawURL, fields)
}

func (c *Client) post(ctx context.Context, rawURL string, fields any) (*Result, error) {
	c.SetOpt(OptPost, true)
	c.SetOpt(OptPostFields, fields)
	return c.Send(ctx, rawURL)
}

// Send finalizes the transfer options, executes the request and releases the
// handle, whatever the outcome.
func (c *Client) Send(ctx context.Context, rawURL string) (*Result, error) {
	h := c.acquire()
	if h == nil {
		err := c.initErr
		c.initErr = nil
		return nil, c.fail(rawURL, err)
	}
	defer c.release()

	h.SetOpt(OptHTTPVersion, HTTPVersion1_1)
	h.SetOpt(OptFollowLocation, true)
	h.SetOpt(OptConnectTimeout, c.timeout)
	h.SetOpt(OptTimeout, c.timeout)

	if c.insecureHTTPS && strings.Contains(rawURL, "https") {
		c.log.WithField("url", rawURL).Warn("TLS peer and host verification disabled")
		h.SetOpt(OptSSLVerifyPeer, false)
		h.SetOpt(OptSSLVerifyHost, false)
	}

	if c.cookiePath != "" {
		h.SetOpt(OptCookieJar, c.cookiePath)
		h.SetOpt(OptCookieFile, c.cookiePath)
	}

	if len(c.defaultHeaders) > 0 || c.headers != nil {
		headers := make([]string, 0, len(c.defaultHeaders)+len(c.headers))
		headers = append(headers, c.defaultHeaders...)
		headers = append(headers, c.headers...)
		h.SetOpt(OptHTTPHeader, headers)
	}

	h.SetOpt(OptHeader, c.captureHeader)
	h.SetOpt(OptURL, rawURL)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return nil, c.fail(rawURL, err)
		}
	}

	c.log.WithFields(logrus.Fields{
		"url":           rawURL,
		"timeout":       c.timeout,
		"captureHeader": c.captureHeader,
		"cookiePath":    c.cookiePath,
	}).Debug("Sending request")

	raw, err := h.Perform(ctx)
	if err != nil {
		return nil, c.fail(rawURL, err)
	}

	result := &Result{
		StatusCode:   infoInt(h, InfoResponseCode),
		ContentType:  infoString(h, InfoContentType),
		EffectiveURL: infoString(h, InfoEffectiveURL),
		HeaderSize:   infoInt(h, InfoHeaderSize),
	}
	if d, err := h.Info(InfoTotalTime); err == nil {
		result.Duration, _ = d.(time.Duration)
	}

	if !c.captureHeader {
		result.Body = raw
	} else {
		size := min(max(result.HeaderSize, 0), len(raw))
		result.Header = string(raw[:size])
		result.Body = raw[size:]
		result.HeaderCaptured = true
	}

	c.log.WithFields(logrus.Fields{
		"url":      rawURL,
		"status":   result.StatusCode,
		"bytes":    len(result.Body),
		"duration": result.Duration,
	}).Debug("Request finished")
	return result, nil
}

// fail turns err into a *RequestError, reports it and returns it.
func (c *Client) fail(rawURL string, err error) error {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = &RequestError{Kind: classify(err), Err: err}
	}
	if reqErr.URL == "" {
		reqErr.URL = rawURL
	}

	if c.diagnostics != nil {
		fmt.Fprintln(c.diagnostics, DiagnosticPrefix+reqErr.Err.Error())
	}
	c.log.WithFields(logrus.Fields{
		"url":  rawURL,
		"kind": reqErr.Kind.String(),
	}).WithError(reqErr.Err).Error("Request failed")
	return reqErr
}

func infoInt(h Handle, key Info) int {
	v, err := h.Info(key)
	if err != nil {
		return 0
	}
	n, _ := v.(int)
	return n
}

func infoString(h Handle, key Info) string {
	v, err := h.Info(key)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
