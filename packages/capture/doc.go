// Package capture extracts values from request results.
//
// It supports selecting:
//   - Body values by gjson path (body.user.id, or just user.id)
//   - Header values from the final response (header.Content-Type)
//   - The status code and duration
//
// Header selectors only match when the header block was captured.
package capture
