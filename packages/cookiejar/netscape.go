package cookiejar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	netscapeHeader = "# Netscape HTTP Cookie File\n# This file was generated by hitreq. Edit at your own risk.\n\n"
	httpOnlyPrefix = "#HttpOnly_"
)

// NetscapeStore keeps cookies in the tab separated cookie file format shared
// with curl and wget.
type NetscapeStore struct {
	path string
}

func NewNetscapeStore(path string) *NetscapeStore {
	return &NetscapeStore{path: path}
}

// Load reads the cookie file. A missing file is an empty jar.
func (s *NetscapeStore) Load() ([]Entry, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseNetscape(file)
}

func (s *NetscapeStore) Save(entries []Entry) error {
	var b strings.Builder
	b.WriteString(netscapeHeader)
	for _, e := range entries {
		b.WriteString(FormatNetscapeLine(e))
		b.WriteByte('\n')
	}
	return os.WriteFile(s.path, []byte(b.String()), 0600)
}

func (s *NetscapeStore) Close() error {
	return nil
}

// ParseNetscape reads cookie lines from r. Malformed lines are skipped.
func ParseNetscape(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
			httpOnly = true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			continue
		}

		e := Entry{
			Domain:            strings.TrimPrefix(strings.ToLower(fields[0]), "."),
			IncludeSubdomains: strings.EqualFold(fields[1], "TRUE"),
			Path:              fields[2],
			Secure:            strings.EqualFold(fields[3], "TRUE"),
			HttpOnly:          httpOnly,
			Name:              fields[5],
			Value:             fields[6],
		}
		if expires > 0 {
			e.Expires = time.Unix(expires, 0)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cookie file: %w", err)
	}
	return entries, nil
}

// FormatNetscapeLine renders e as one cookie file line.
func FormatNetscapeLine(e Entry) string {
	domain := e.Domain
	if e.IncludeSubdomains {
		domain = "." + domain
	}
	if e.HttpOnly {
		domain = httpOnlyPrefix + domain
	}

	var expires int64
	if !e.Expires.IsZero() {
		expires = e.Expires.Unix()
	}

	return strings.Join([]string{
		domain,
		flag(e.IncludeSubdomains),
		e.Path,
		flag(e.Secure),
		strconv.FormatInt(expires, 10),
		e.Name,
		e.Value,
	}, "\t")
}

func flag(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
