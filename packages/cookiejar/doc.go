// Package cookiejar provides a persistent http.CookieJar.
//
// Cookies are matched by net/http/cookiejar and written back to either:
//   - A Netscape cookie file, readable by curl and wget
//   - A SQLite database (paths ending in .db, .sqlite or .sqlite3)
//
// Session cookies are persisted too, with an expiry of zero.
package cookiejar
