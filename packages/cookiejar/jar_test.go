package cookiejar

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestJar_SetCookiesRecordsEntries(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jar.now = func() time.Time { return fixed }

	u := mustParse(t, "http://www.example.com/account/login")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "session", Value: "abc"},
		{Name: "pref", Value: "dark", Domain: ".example.com", Path: "/", MaxAge: 60},
		{Name: "foreign", Value: "x", Domain: "other.org"},
	})

	entries := jar.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, "example.com", entries[0].Domain)
	assert.True(t, entries[0].IncludeSubdomains)
	assert.Equal(t, "pref", entries[0].Name)
	assert.Equal(t, fixed.Add(time.Minute), entries[0].Expires)

	assert.Equal(t, "www.example.com", entries[1].Domain)
	assert.False(t, entries[1].IncludeSubdomains)
	assert.Equal(t, "/account", entries[1].Path)
	assert.True(t, entries[1].Expires.IsZero())
}

func TestJar_DeleteWithNegativeMaxAge(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	u := mustParse(t, "http://example.com/")
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc", Path: "/"}})
	require.Len(t, jar.Entries(), 1)

	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "", Path: "/", MaxAge: -1}})
	assert.Empty(t, jar.Entries())
	assert.Empty(t, jar.Cookies(u))
}

func TestJar_ExpiredEntriesDropped(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	now := time.Now()
	jar.Add(
		Entry{Domain: "example.com", Path: "/", Name: "old", Value: "1", Expires: now.Add(-time.Hour)},
		Entry{Domain: "example.com", Path: "/", Name: "new", Value: "2", Expires: now.Add(time.Hour)},
	)

	entries := jar.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Name)

	cookies := jar.Cookies(mustParse(t, "http://example.com/"))
	require.Len(t, cookies, 1)
	assert.Equal(t, "2", cookies[0].Value)
}

func TestJar_AddMatchesSubdomains(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	jar.Add(Entry{Domain: "example.com", IncludeSubdomains: true, Path: "/", Name: "wide", Value: "1"})
	jar.Add(Entry{Domain: "example.com", Path: "/", Name: "narrow", Value: "2"})

	assert.Len(t, jar.Cookies(mustParse(t, "http://api.example.com/")), 1)
	assert.Len(t, jar.Cookies(mustParse(t, "http://example.com/")), 2)
}

func TestJar_SecureEntriesOnlyOverHTTPS(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	jar.Add(Entry{Domain: "example.com", Path: "/", Secure: true, Name: "s", Value: "1"})

	assert.Empty(t, jar.Cookies(mustParse(t, "http://example.com/")))
	assert.Len(t, jar.Cookies(mustParse(t, "https://example.com/")), 1)
}

func TestJar_OpenAndSave(t *testing.T) {
	for _, name := range []string{"cookies.txt", "cookies.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			jar, err := Open(path)
			require.NoError(t, err)
			jar.SetCookies(mustParse(t, "http://127.0.0.1:8080/"), []*http.Cookie{
				{Name: "token", Value: "t1", Path: "/"},
			})
			require.NoError(t, jar.Save())
			require.NoError(t, jar.Close())

			reopened, err := Open(path)
			require.NoError(t, err)
			defer reopened.Close()

			entries := reopened.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, "127.0.0.1", entries[0].Domain)

			cookies := reopened.Cookies(mustParse(t, "http://127.0.0.1:9090/x"))
			require.Len(t, cookies, 1)
			assert.Equal(t, "t1", cookies[0].Value)
		})
	}
}

func TestOpenStore_PicksBackend(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenStore(filepath.Join(dir, "jar.sqlite3"))
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &SQLiteStore{}, store)

	store, err = OpenStore(filepath.Join(dir, "jar"))
	require.NoError(t, err)
	assert.IsType(t, &NetscapeStore{}, store)
}
