// Package builtin provides the functions available inside {{...}} templates
// in URLs, headers and form data.
//
// Available functions:
//   - uuid(): Random UUID v4
//   - now(), date(layout): Current time, RFC 3339 or a Go layout
//   - timestamp(), timestampMs(): Current Unix time
//   - random(min, max), randomString(length)
//   - base64(value), base64Decode(value), basicAuth(user, pass)
//   - sha256(value), urlEncode(value)
//   - env(name, fallback): Environment variable value
package builtin
