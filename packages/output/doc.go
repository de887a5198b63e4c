// Package output renders request results for the hitreq command line.
//
// Supported output formats:
//   - Console: the response body (or response/header envelope) on stdout,
//     a colored status summary on stderr in verbose mode
//   - JSON: one machine readable document per request
//
// Failures are printed as a "cURL Error: <cause>" line on stdout.
package output
