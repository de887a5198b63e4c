package cookiejar

import (
	"fmt"
	"net"
	"net/http"
	stdjar "net/http/cookiejar"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Entry is one persisted cookie.
type Entry struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	HttpOnly          bool
	// Expires is zero for session cookies.
	Expires time.Time
	Name    string
	Value   string
}

func (e Entry) key() string {
	return e.Domain + ";" + e.Path + ";" + e.Name
}

func (e Entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !e.Expires.After(now)
}

// Store loads and saves cookie entries.
type Store interface {
	Load() ([]Entry, error)
	Save(entries []Entry) error
	Close() error
}

// Jar is an http.CookieJar that remembers every cookie it accepts so the set
// can be written back to a Store. Matching is done by net/http/cookiejar.
type Jar struct {
	mu      sync.Mutex
	jar     *stdjar.Jar
	entries map[string]Entry
	store   Store
	now     func() time.Time
}

// New returns an empty jar with no backing store.
func New() (*Jar, error) {
	jar, err := stdjar.New(&stdjar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{
		jar:     jar,
		entries: make(map[string]Entry),
		now:     time.Now,
	}, nil
}

// Open returns a jar backed by the file at path, loading any cookies it
// already holds. Paths ending in .db, .sqlite or .sqlite3 use SQLite; any
// other path uses the Netscape cookie file format.
func Open(path string) (*Jar, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}

	j, err := New()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	j.store = store

	entries, err := store.Load()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("loading cookies from %s: %w", path, err)
	}
	j.Add(entries...)
	return j, nil
}

// OpenStore picks a Store for path by its extension.
func OpenStore(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLiteStore(path)
	default:
		return NewNetscapeStore(path), nil
	}
}

// Add loads entries into the jar, skipping expired ones.
func (j *Jar) Add(entries ...Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, e := range entries {
		if e.expired(now) {
			continue
		}
		scheme := "http"
		if e.Secure {
			scheme = "https"
		}
		u := &url.URL{Scheme: scheme, Host: e.Domain, Path: e.Path}
		c := &http.Cookie{
			Name:     e.Name,
			Value:    e.Value,
			Path:     e.Path,
			Secure:   e.Secure,
			HttpOnly: e.HttpOnly,
			Expires:  e.Expires,
		}
		if e.IncludeSubdomains {
			c.Domain = e.Domain
		}
		j.jar.SetCookies(u, []*http.Cookie{c})
		j.entries[e.key()] = e
	}
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	host := strings.ToLower(u.Hostname())
	for _, c := range cookies {
		e, ok := entryFor(host, u.Path, c, now)
		if !ok {
			continue
		}
		if e.expired(now) || c.MaxAge < 0 {
			delete(j.entries, e.key())
			continue
		}
		j.entries[e.key()] = e
	}
	j.jar.SetCookies(u, cookies)
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Entries returns the live cookies sorted by domain, path and name.
func (j *Jar) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	out := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if !e.expired(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].key() < out[b].key()
	})
	return out
}

// Save writes the jar back to the store it was opened from.
func (j *Jar) Save() error {
	if j.store == nil {
		return nil
	}
	return j.store.Save(j.Entries())
}

// SaveTo writes the jar to the file at path.
func (j *Jar) SaveTo(path string) error {
	store, err := OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(j.Entries())
}

func (j *Jar) Close() error {
	if j.store == nil {
		return nil
	}
	return j.store.Close()
}

// entryFor derives the stored form of c received from host. ok is false for
// cookies the jar would reject for domain mismatch.
func entryFor(host, requestPath string, c *http.Cookie, now time.Time) (Entry, bool) {
	e := Entry{
		Domain:   host,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		Name:     c.Name,
		Value:    c.Value,
	}

	if c.Domain != "" && net.ParseIP(host) == nil {
		domain := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
		if domain != host && !strings.HasSuffix(host, "."+domain) {
			return Entry{}, false
		}
		e.Domain = domain
		e.IncludeSubdomains = true
	}

	if e.Path == "" || e.Path[0] != '/' {
		e.Path = defaultPath(requestPath)
	}

	switch {
	case c.MaxAge > 0:
		e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	case !c.Expires.IsZero():
		e.Expires = c.Expires
	}
	return e, true
}

// defaultPath is the directory of the request path (RFC 6265 section 5.1.4).
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
