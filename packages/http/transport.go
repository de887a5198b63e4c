package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
)

const (
	// DefaultMaxRedirects is the redirect limit when OptMaxRedirs is unset.
	DefaultMaxRedirects = 30
)

var errHandleClosed = errors.New("handle is closed")

// NewEngine returns the net/http backed engine.
func NewEngine() Engine {
	return netEngine{}
}

type netEngine struct{}

func (netEngine) Init() (Handle, error) {
	return &netHandle{opts: make(map[Option]any)}, nil
}

type netHandle struct {
	opts   map[Option]any
	closed bool

	headerSize   int
	responseCode int
	effectiveURL string
	totalTime    time.Duration
	contentType  string
	redirects    int
}

func (h *netHandle) SetOpt(opt Option, value any) {
	if h.closed {
		return
	}
	h.opts[opt] = value
}

func (h *netHandle) Info(key Info) (any, error) {
	switch key {
	case InfoHeaderSize:
		return h.headerSize, nil
	case InfoResponseCode:
		return h.responseCode, nil
	case InfoEffectiveURL:
		return h.effectiveURL, nil
	case InfoTotalTime:
		return h.totalTime, nil
	case InfoContentType:
		return h.contentType, nil
	case InfoRedirectCount:
		return h.redirects, nil
	default:
		return nil, fmt.Errorf("unknown info key %d", int(key))
	}
}

func (h *netHandle) Close() error {
	h.closed = true
	h.opts = nil
	return nil
}

// transfer is the validated form of a handle's options.
type transfer struct {
	url            string
	headers        []string
	method         string
	postFields     any
	version        HTTPVersion
	follow         bool
	maxRedirects   int
	connectTimeout time.Duration
	timeout        time.Duration
	verifyPeer     bool
	verifyHost     bool
	cookieFile     string
	cookieJar      string
	includeHeader  bool
	userAgent      string
	referer        string
	userPwd        string
	proxy          string
}

func (h *netHandle) transfer() (*transfer, error) {
	t := &transfer{
		maxRedirects: DefaultMaxRedirects,
		verifyPeer:   true,
		verifyHost:   true,
	}
	var (
		post bool
		err  error
	)

	for opt, value := range h.opts {
		switch opt {
		case OptURL:
			t.url, err = stringOpt(opt, value)
		case OptHTTPHeader:
			t.headers, err = headersOpt(value)
		case OptPost:
			post, err = boolOpt(opt, value)
		case OptPostFields:
			t.postFields = value
		case OptCustomRequest:
			t.method, err = stringOpt(opt, value)
		case OptHTTPVersion:
			v, ok := value.(HTTPVersion)
			if !ok {
				err = optionError(opt, "HTTPVersion", value)
			}
			t.version = v
		case OptFollowLocation:
			t.follow, err = boolOpt(opt, value)
		case OptMaxRedirs:
			t.maxRedirects, err = intOpt(opt, value)
		case OptConnectTimeout:
			var secs int
			secs, err = intOpt(opt, value)
			t.connectTimeout = time.Duration(secs) * time.Second
		case OptTimeout:
			var secs int
			secs, err = intOpt(opt, value)
			t.timeout = time.Duration(secs) * time.Second
		case OptSSLVerifyPeer:
			t.verifyPeer, err = boolOpt(opt, value)
		case OptSSLVerifyHost:
			t.verifyHost, err = boolOpt(opt, value)
		case OptCookieFile:
			t.cookieFile, err = stringOpt(opt, value)
		case OptCookieJar:
			t.cookieJar, err = stringOpt(opt, value)
		case OptHeader:
			t.includeHeader, err = boolOpt(opt, value)
		case OptUserAgent:
			t.userAgent, err = stringOpt(opt, value)
		case OptReferer:
			t.referer, err = stringOpt(opt, value)
		case OptUserPwd:
			t.userPwd, err = stringOpt(opt, value)
		case OptProxy:
			t.proxy, err = stringOpt(opt, value)
		default:
			err = &RequestError{Kind: KindOption, Err: fmt.Errorf("unsupported option %s", opt)}
		}
		if err != nil {
			return nil, err
		}
	}

	if t.url == "" {
		return nil, &RequestError{Kind: KindOption, Err: fmt.Errorf("%s is not set", OptURL)}
	}
	if t.method == "" {
		t.method = http.MethodGet
		if post || t.postFields != nil {
			t.method = http.MethodPost
		}
	}
	return t, nil
}

func (h *netHandle) Perform(ctx context.Context) ([]byte, error) {
	if h.closed {
		return nil, &RequestError{Kind: KindConstruction, Err: errHandleClosed}
	}
	t, err := h.transfer()
	if err != nil {
		return nil, err
	}

	body, contentType, err := buildBody(t.postFields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, t.method, t.url, body)
	if err != nil {
		return nil, &RequestError{Kind: KindOption, URL: t.url, Err: err}
	}
	t.applyHeaders(req, contentType)

	client, err := t.client()
	if err != nil {
		return nil, err
	}
	recorder := &headerRecorder{base: client.Transport}
	client.Transport = recorder

	var jar *cookiejar.Jar
	if t.cookieFile != "" || t.cookieJar != "" {
		jar, err = openJar(t.cookieFile)
		if err != nil {
			return nil, &RequestError{Kind: KindTransport, URL: t.url, Err: err}
		}
		defer jar.Close()
		client.Jar = jar
	}

	start := time.Now()
	resp, err := client.Do(req)
	h.totalTime = time.Since(start)
	h.headerSize = recorder.buf.Len()
	h.redirects = max(recorder.count-1, 0)

	if err != nil {
		_ = saveJar(jar, t.cookieJar)
		return nil, &RequestError{Kind: classify(err), URL: t.url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: classify(err), URL: t.url, Err: err}
	}
	h.responseCode = resp.StatusCode
	h.effectiveURL = resp.Request.URL.String()
	h.contentType = resp.Header.Get("Content-Type")

	if err := saveJar(jar, t.cookieJar); err != nil {
		return nil, &RequestError{Kind: KindTransport, URL: t.url, Err: err}
	}

	if !t.includeHeader {
		return respBody, nil
	}
	raw := make([]byte, 0, recorder.buf.Len()+len(respBody))
	raw = append(raw, recorder.buf.Bytes()...)
	return append(raw, respBody...), nil
}

func (t *transfer) applyHeaders(req *http.Request, contentType string) {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.referer != "" {
		req.Header.Set("Referer", t.referer)
	}
	if t.userPwd != "" {
		user, pass, _ := strings.Cut(t.userPwd, ":")
		req.SetBasicAuth(user, pass)
	}

	// Explicit header lines win over the defaults above. "Name:" with no
	// value removes the header.
	set := make(map[string]bool)
	for _, line := range t.headers {
		name, value, ok := ParseHeaderLine(line)
		if !ok {
			continue
		}
		if value == "" {
			req.Header.Del(name)
			continue
		}
		key := http.CanonicalHeaderKey(name)
		if !set[key] {
			req.Header.Del(key)
			set[key] = true
		}
		if key == "Host" {
			req.Host = value
			continue
		}
		req.Header.Add(key, value)
	}
}

func (t *transfer) client() (*http.Client, error) {
	dialer := &net.Dialer{Timeout: t.connectTimeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: t.connectTimeout,
		DisableKeepAlives:   true,
		ForceAttemptHTTP2:   t.version != HTTPVersion1_1,
		TLSClientConfig:     t.tlsConfig(),
	}
	if t.version == HTTPVersion1_1 {
		// A non-nil empty map turns off HTTP/2 upgrades.
		transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}

	if t.proxy != "" {
		proxyURL, err := neturl.Parse(t.proxy)
		if err != nil {
			return nil, &RequestError{Kind: KindOption, Err: fmt.Errorf("invalid proxy: %w", err)}
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !t.follow {
			return http.ErrUseLastResponse
		}
		if t.maxRedirects >= 0 && len(via) > t.maxRedirects {
			return fmt.Errorf("maximum (%d) redirects followed", t.maxRedirects)
		}
		return nil
	}

	return &http.Client{
		Transport:     transport,
		Timeout:       t.timeout,
		CheckRedirect: redirectPolicy,
	}, nil
}

// tlsConfig mirrors the peer/host verification switches. With only host
// verification off the chain is still checked, without the name match.
func (t *transfer) tlsConfig() *tls.Config {
	switch {
	case !t.verifyPeer:
		return &tls.Config{InsecureSkipVerify: true}
	case !t.verifyHost:
		return &tls.Config{
			InsecureSkipVerify: true,
			VerifyConnection:   verifyChainOnly,
		}
	default:
		return nil
	}
}

func verifyChainOnly(cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return errors.New("no peer certificates")
	}
	intermediates := x509.NewCertPool()
	for _, cert := range cs.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}
	_, err := cs.PeerCertificates[0].Verify(x509.VerifyOptions{Intermediates: intermediates})
	return err
}

// headerRecorder keeps the header block of every response in a redirect
// chain, the way the raw transfer output would contain them.
type headerRecorder struct {
	base  http.RoundTripper
	buf   bytes.Buffer
	count int
}

func (r *headerRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&r.buf, "%s %s\r\n", resp.Proto, resp.Status)
	_ = resp.Header.Write(&r.buf)
	r.buf.WriteString("\r\n")
	r.count++
	return resp, nil
}

func openJar(path string) (*cookiejar.Jar, error) {
	if path == "" {
		return cookiejar.New()
	}
	return cookiejar.Open(path)
}

func saveJar(jar *cookiejar.Jar, path string) error {
	if jar == nil || path == "" {
		return nil
	}
	return jar.SaveTo(path)
}

func stringOpt(opt Option, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", optionError(opt, "string", value)
	}
	return s, nil
}

func boolOpt(opt Option, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	default:
		return false, optionError(opt, "bool", value)
	}
}

func intOpt(opt Option, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, optionError(opt, "int", value)
	}
}

func headersOpt(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	default:
		return nil, optionError(OptHTTPHeader, "[]string", value)
	}
}
