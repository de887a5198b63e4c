package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	neturl "net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FormField is one part of a multipart/form-data body. A non-empty Path
// uploads the file at that path under Name; otherwise Value is sent as a
// plain field.
type FormField struct {
	Name  string
	Value string
	Path  string
}

// AppendQuery appends data to rawURL as an encoded query string joined by a
// literal "?". An existing query in rawURL is left alone, so the result may
// contain two "?" characters.
func AppendQuery(rawURL string, data neturl.Values) string {
	encoded := data.Encode()
	if encoded == "" {
		return rawURL
	}
	return rawURL + "?" + encoded
}

// ParseHeaderLine splits a "Name: value" line. ok is false when the line has
// no colon or an empty name.
func ParseHeaderLine(line string) (name, value string, ok bool) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}

// FieldsFromValues turns form values into multipart fields in key order.
func FieldsFromValues(data neturl.Values) []FormField {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]FormField, 0, len(keys))
	for _, k := range keys {
		for _, v := range data[k] {
			fields = append(fields, FormField{Name: k, Value: v})
		}
	}
	return fields
}

// buildBody encodes an OptPostFields value. Strings are sent verbatim as
// application/x-www-form-urlencoded unless a header overrides the type;
// url.Values and []FormField become multipart/form-data.
func buildBody(value any) (io.Reader, string, error) {
	switch v := value.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(v), "application/x-www-form-urlencoded", nil
	case []byte:
		return bytes.NewReader(v), "application/x-www-form-urlencoded", nil
	case neturl.Values:
		return BuildMultipartBody(FieldsFromValues(v))
	case map[string]string:
		values := make(neturl.Values, len(v))
		for k, s := range v {
			values.Set(k, s)
		}
		return BuildMultipartBody(FieldsFromValues(values))
	case []FormField:
		return BuildMultipartBody(v)
	default:
		return nil, "", optionError(OptPostFields, "string, []byte, url.Values, map[string]string or []FormField", value)
	}
}

// BuildMultipartBody creates a multipart form data body from fields.
func BuildMultipartBody(fields []FormField) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		if field.Path == "" {
			if err := writer.WriteField(field.Name, field.Value); err != nil {
				return nil, "", err
			}
			continue
		}

		if err := writeFilePart(writer, field); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, field FormField) error {
	file, err := os.Open(field.Path)
	if err != nil {
		return fmt.Errorf("opening upload %q: %w", field.Name, err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field.Name, filepath.Base(field.Path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}
