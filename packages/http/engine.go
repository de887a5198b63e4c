package http

import (
	"context"
	"fmt"
)

// Option identifies a transfer option set on a Handle.
type Option int

const (
	OptURL Option = iota + 1
	OptHTTPHeader
	OptPost
	OptPostFields
	OptCustomRequest
	OptHTTPVersion
	OptFollowLocation
	OptMaxRedirs
	OptConnectTimeout
	OptTimeout
	OptSSLVerifyPeer
	OptSSLVerifyHost
	OptCookieFile
	OptCookieJar
	OptHeader
	OptUserAgent
	OptReferer
	OptUserPwd
	OptProxy
)

var optionNames = map[Option]string{
	OptURL:            "URL",
	OptHTTPHeader:     "HTTPHEADER",
	OptPost:           "POST",
	OptPostFields:     "POSTFIELDS",
	OptCustomRequest:  "CUSTOMREQUEST",
	OptHTTPVersion:    "HTTP_VERSION",
	OptFollowLocation: "FOLLOWLOCATION",
	OptMaxRedirs:      "MAXREDIRS",
	OptConnectTimeout: "CONNECTTIMEOUT",
	OptTimeout:        "TIMEOUT",
	OptSSLVerifyPeer:  "SSL_VERIFYPEER",
	OptSSLVerifyHost:  "SSL_VERIFYHOST",
	OptCookieFile:     "COOKIEFILE",
	OptCookieJar:      "COOKIEJAR",
	OptHeader:         "HEADER",
	OptUserAgent:      "USERAGENT",
	OptReferer:        "REFERER",
	OptUserPwd:        "USERPWD",
	OptProxy:          "PROXY",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Option(%d)", int(o))
}

// Info identifies a value reported by a Handle after Perform.
type Info int

const (
	InfoHeaderSize Info = iota + 1
	InfoResponseCode
	InfoEffectiveURL
	InfoTotalTime
	InfoContentType
	InfoRedirectCount
)

// HTTPVersion is the value type of OptHTTPVersion.
type HTTPVersion int

const (
	// HTTPVersionNone lets the engine negotiate (HTTP/2 over TLS when offered).
	HTTPVersionNone HTTPVersion = iota
	HTTPVersion1_1
	HTTPVersion2
)

// Engine creates transfer handles.
type Engine interface {
	Init() (Handle, error)
}

// Handle is a single stateful transfer session. Options are stored as given
// and only checked by Perform, so an invalid option/value pairing surfaces
// when the request is executed.
type Handle interface {
	SetOpt(opt Option, value any)
	// Perform executes the configured request and returns the raw response:
	// the header block (when OptHeader is true) followed by the body.
	Perform(ctx context.Context) ([]byte, error)
	Info(key Info) (any, error)
	Close() error
}
