// Package http provides the request client used by hitreq.
//
// A Client drives a transfer Handle obtained from an Engine:
//   - Fluent configuration (SetOpt, SetHeader, SetTimeout, SetCookiePath)
//   - GET with query data, POST with multipart fields or a raw body
//   - Optional capture of the raw response header block
//   - Persistent cookies through packages/cookiejar
//   - Typed errors (RequestError) for construction, option, transport,
//     timeout and TLS failures
//
// The default Engine is built on net/http. Instance returns a process-wide
// client for callers that want a single shared helper.
package http
