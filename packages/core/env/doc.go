// Package env handles environment variables and template resolution for hitreq.
//
// It provides functionality for:
//   - Loading .env files
//   - Collecting HITREQ_VAR_* variables and --var assignments
//   - Interpolation of {{variable}}, {{$ENV}} and {{function()}} expressions
//     in URLs, headers and form data
package env
