package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes a fresh command tree from an empty working directory.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		fmt.Fprintf(w, "%s %s query=%s token=%s ct=%s body=%s",
			r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("X-Token"),
			strings.Split(r.Header.Get("Content-Type"), ";")[0], body)
	}))
	t.Cleanup(server.Close)
	return server
}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "req-1")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGet(t *testing.T) {
	chdir(t, t.TempDir())
	server := echoServer(t)

	t.Run("plain", func(t *testing.T) {
		stdout, _, err := runCLI(t, "get", server.URL+"/users", "--no-color")
		require.NoError(t, err)
		assert.Equal(t, "GET /users query= token= ct= body=\n", stdout)
	})

	t.Run("query data", func(t *testing.T) {
		stdout, _, err := runCLI(t, "get", server.URL+"/users", "-d", "page=2", "-d", "q=two words")
		require.NoError(t, err)
		assert.Contains(t, stdout, "query=page=2&q=two+words")
	})

	t.Run("query appended with literal question mark", func(t *testing.T) {
		stdout, _, err := runCLI(t, "get", server.URL+"/users?sort=asc", "-d", "page=2")
		require.NoError(t, err)
		assert.Contains(t, stdout, "query=sort=asc?page=2")
	})

	t.Run("headers and templates", func(t *testing.T) {
		stdout, _, err := runCLI(t, "get", "{{base}}/users/{{id}}",
			"--var", "base="+server.URL, "--var", "id=42",
			"-H", "X-Token: {{id}}-tok")
		require.NoError(t, err)
		assert.Contains(t, stdout, "GET /users/42")
		assert.Contains(t, stdout, "token=42-tok")
	})

	t.Run("invalid data pair", func(t *testing.T) {
		_, _, err := runCLI(t, "get", server.URL, "-d", "novalue")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
	})

	t.Run("invalid header", func(t *testing.T) {
		_, _, err := runCLI(t, "get", server.URL, "-H", "no colon")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
	})

	t.Run("missing url", func(t *testing.T) {
		_, _, err := runCLI(t, "get")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
	})
}

func TestGet_TemplatesFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	server := echoServer(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("token=from-dotenv\n"), 0600))

	stdout, _, err := runCLI(t, "get", server.URL, "-H", "X-Token: {{token}}")
	require.NoError(t, err)
	assert.Contains(t, stdout, "token=from-dotenv")
}

func TestGet_ConfigFileHeaders(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	server := echoServer(t)

	cfg := "headers:\n  - \"X-Token: from-config\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitreq.yaml"), []byte(cfg), 0600))

	stdout, _, err := runCLI(t, "get", server.URL)
	require.NoError(t, err)
	assert.Contains(t, stdout, "token=from-config")
}

func TestGet_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [1"), 0600))

	_, _, err := runCLI(t, "get", "http://127.0.0.1:1", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestGet_Include(t *testing.T) {
	chdir(t, t.TempDir())
	server := jsonServer(t, `{"ok":true}`)

	stdout, _, err := runCLI(t, "get", server.URL, "-i")
	require.NoError(t, err)

	var envelope struct {
		Response string `json:"response"`
		Header   string `json:"header"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &envelope))
	assert.Equal(t, `{"ok":true}`, envelope.Response)
	assert.True(t, strings.HasPrefix(envelope.Header, "HTTP/1.1 200"))
	assert.Contains(t, envelope.Header, "X-Request-Id: req-1")
}

func TestGet_Select(t *testing.T) {
	chdir(t, t.TempDir())
	server := jsonServer(t, `{"user":{"name":"ada","roles":["admin"]}}`)

	t.Run("single value printed bare", func(t *testing.T) {
		stdout, _, err := runCLI(t, "get", server.URL, "--select", "user.name")
		require.NoError(t, err)
		assert.Equal(t, "ada\n", stdout)
	})

	t.Run("several values", func(t *testing.T) {
		stdout, _, err := runCLI(t, "get", server.URL, "--no-color", "--select", "status", "--select", "header.X-Request-Id")
		require.NoError(t, err)
		assert.Equal(t, "status = 200\nheader.X-Request-Id = req-1\n", stdout)
	})

	t.Run("no match fails the check", func(t *testing.T) {
		stdout, stderr, err := runCLI(t, "get", server.URL, "--select", "user.email")
		require.Error(t, err)
		assert.Equal(t, ExitCheckFailure, exitCode(err))
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, `nothing matched "user.email"`)
	})

	t.Run("bad selector", func(t *testing.T) {
		_, _, err := runCLI(t, "get", server.URL, "--select", "header.")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
	})
}

func TestGet_Schema(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	server := jsonServer(t, `{"id":"not-a-number"}`)

	schemaPath := filepath.Join(dir, "user.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{
		"type": "object",
		"required": ["id"],
		"properties": {"id": {"type": "integer"}}
	}`), 0600))

	stdout, stderr, err := runCLI(t, "get", server.URL, "--schema", schemaPath)
	require.Error(t, err)
	assert.Equal(t, ExitCheckFailure, exitCode(err))
	assert.Equal(t, `{"id":"not-a-number"}`+"\n", stdout, "body is still printed")
	assert.Contains(t, stderr, "Schema:")

	_, _, err = runCLI(t, "get", server.URL, "--schema", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestGet_TransportFailure(t *testing.T) {
	chdir(t, t.TempDir())
	server := httptest.NewServer(nethttp.NotFoundHandler())
	url := server.URL
	server.Close()

	stdout, _, err := runCLI(t, "get", url, "--no-color", "--timeout", "2")
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCode(err))
	assert.True(t, strings.HasPrefix(stdout, http.DiagnosticPrefix), "stdout: %q", stdout)

	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr))
	assert.True(t, exitErr.reported)
	assert.True(t, errors.Is(err, http.ErrTransport))
}

func TestGet_JSONOutput(t *testing.T) {
	chdir(t, t.TempDir())
	server := jsonServer(t, `{"ok":true}`)

	stdout, _, err := runCLI(t, "get", server.URL, "-o", "json")
	require.NoError(t, err)

	var out struct {
		OK         bool   `json:"ok"`
		StatusCode int    `json:"statusCode"`
		Body       string `json:"body"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.True(t, out.OK)
	assert.Equal(t, 200, out.StatusCode)
	assert.Equal(t, `{"ok":true}`, out.Body)

	_, _, err = runCLI(t, "get", server.URL, "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestGet_CookieJarPersists(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/login" {
			nethttp.SetCookie(w, &nethttp.Cookie{Name: "session", Value: "abc", Path: "/"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil {
			fmt.Fprint(w, "anonymous")
			return
		}
		fmt.Fprint(w, "session="+c.Value)
	}))
	t.Cleanup(server.Close)

	for _, name := range []string{"cookies.txt", "cookies.db"} {
		t.Run(name, func(t *testing.T) {
			jar := filepath.Join(dir, name)

			_, _, err := runCLI(t, "get", server.URL+"/login", "-c", jar)
			require.NoError(t, err)
			assert.FileExists(t, jar)

			stdout, _, err := runCLI(t, "get", server.URL+"/me", "-c", jar)
			require.NoError(t, err)
			assert.Equal(t, "session=abc\n", stdout)
		})
	}
}

func TestPost(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	server := echoServer(t)

	t.Run("empty form", func(t *testing.T) {
		stdout, _, err := runCLI(t, "post", server.URL+"/submit")
		require.NoError(t, err)
		assert.Contains(t, stdout, "POST /submit")
		assert.Contains(t, stdout, "ct=multipart/form-data")
	})

	t.Run("raw data", func(t *testing.T) {
		stdout, _, err := runCLI(t, "post", server.URL, "--data", `{"name":"{{who}}"}`, "--var", "who=ada",
			"-H", "Content-Type: application/json")
		require.NoError(t, err)
		assert.Contains(t, stdout, "ct=application/json")
		assert.Contains(t, stdout, `body={"name":"ada"}`)
	})

	t.Run("raw data defaults to urlencoded", func(t *testing.T) {
		stdout, _, err := runCLI(t, "post", server.URL, "--data", "a=1&b=2")
		require.NoError(t, err)
		assert.Contains(t, stdout, "ct=application/x-www-form-urlencoded body=a=1&b=2")
	})

	t.Run("data from file", func(t *testing.T) {
		path := filepath.Join(dir, "body.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0600))

		stdout, _, err := runCLI(t, "post", server.URL, "--data", "@"+path)
		require.NoError(t, err)
		assert.Contains(t, stdout, `body={"from":"file"}`)
	})

	t.Run("data and form together", func(t *testing.T) {
		_, _, err := runCLI(t, "post", server.URL, "--data", "x", "-F", "a=1")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
	})

	t.Run("missing data file", func(t *testing.T) {
		_, _, err := runCLI(t, "post", server.URL, "--data", "@"+filepath.Join(dir, "nope.json"))
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
	})

	t.Run("watch without files", func(t *testing.T) {
		_, _, err := runCLI(t, "post", server.URL, "--data", "x", "--watch")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
	})
}

func TestPost_MultipartForm(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, "name=%s", r.FormValue("name"))

		file, header, err := r.FormFile("avatar")
		if err != nil {
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		fmt.Fprintf(w, " file=%s:%s", header.Filename, content)
	}))
	t.Cleanup(server.Close)

	upload := filepath.Join(dir, "avatar.txt")
	require.NoError(t, os.WriteFile(upload, []byte("pixels"), 0600))

	stdout, _, err := runCLI(t, "post", server.URL, "-F", "name={{who}}", "-F", "avatar=@"+upload, "--var", "who=ada")
	require.NoError(t, err)
	assert.Equal(t, "name=ada file=avatar.txt:pixels\n", stdout)

	_, _, err = runCLI(t, "post", server.URL, "-F", "novalue")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestParseFormFields(t *testing.T) {
	dir := t.TempDir()
	upload := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(upload, []byte("x"), 0600))

	fields, files, err := parseFormFields([]string{"a=1", "b=x=y", "f=@" + upload})
	require.NoError(t, err)
	assert.Equal(t, []http.FormField{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "x=y"},
		{Name: "f", Path: upload},
	}, fields)
	assert.Equal(t, []string{upload}, files)

	_, _, err = parseFormFields([]string{"=v"})
	assert.Error(t, err)

	_, _, err = parseFormFields([]string{"f=@" + filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestParsePairs(t *testing.T) {
	values, err := parsePairs(nil, "-d")
	require.NoError(t, err)
	assert.Nil(t, values)

	values, err = parsePairs([]string{"a=1", "a=2", "b="}, "-d")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values["a"])
	assert.Equal(t, []string{""}, values["b"])

	_, err = parsePairs([]string{"a"}, "-d")
	assert.ErrorContains(t, err, `invalid -d value "a"`)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	stdout, _, err := runCLI(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hitreq initialized!")
	assert.FileExists(t, filepath.Join(dir, ".hitreq.yaml"))
	assert.FileExists(t, filepath.Join(dir, ".env"))

	cfg, err := os.ReadFile(filepath.Join(dir, ".hitreq.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "Authorization: Bearer {{token}}")

	_, _, err = runCLI(t, "init")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))

	_, _, err = runCLI(t, "init", "--force")
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hitreq version "+version)
	assert.Contains(t, stdout, "Built: "+buildTime)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usageError(errors.New("x")), ExitUsageError},
		{"config", configError(errors.New("x")), ExitConfigError},
		{"check", checkFailure(errors.New("x")), ExitCheckFailure},
		{"transport", requestError(&http.RequestError{Kind: http.KindTransport, Err: errors.New("refused")}), ExitNetworkError},
		{"timeout", requestError(&http.RequestError{Kind: http.KindTimeout, Err: errors.New("slow")}), ExitNetworkError},
		{"bad option", requestError(&http.RequestError{Kind: http.KindOption, Err: errors.New("bad")}), ExitUsageError},
		{"wrapped", fmt.Errorf("outer: %w", configError(errors.New("x"))), ExitConfigError},
		{"plain cobra error", errors.New("unknown flag: --nope"), ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestWatchFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logrus.New()
	log.SetOutput(io.Discard)

	changed := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{path}, log, func(p string) {
			changed <- p
		})
	}()

	// The watcher is registered asynchronously, so keep writing until an
	// event arrives. Writes are spaced wider than the debounce delay.
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(WatchDebounceDelay * 3)
	defer tick.Stop()

	var got string
loop:
	for {
		select {
		case got = <-changed:
			break loop
		case <-tick.C:
			require.NoError(t, os.WriteFile(other, []byte("ignored"), 0600))
			require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0600))
		case <-deadline:
			t.Fatal("no change event received")
		}
	}

	assert.Equal(t, filepath.Base(path), filepath.Base(got))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchFiles did not stop after cancel")
	}
}

func TestWatchFiles_MissingDirectory(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	err := watchFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope", "body.json")}, log, func(string) {})
	assert.Error(t, err)
}
