// Package cmd implements the hitreq CLI commands using Cobra.
//
// Available commands:
//   - get: Send a GET request, with -d pairs appended as a query string
//   - post: Send a POST request with form fields, files or a raw body
//   - init: Write a starter .hitreq.yaml and .env
//   - version: Show hitreq version information
//   - completion: Generate shell completion scripts
//
// Request commands share flags for headers, timeouts, cookies, output
// selection and schema checks. Most flags default from HITREQ_* environment
// variables.
package cmd
