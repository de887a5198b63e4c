package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/spf13/cobra"
)

type postFlags struct {
	requestFlags
	form  []string
	data  string
	watch bool
}

func newPostCmd() *cobra.Command {
	f := &postFlags{}

	cmd := &cobra.Command{
		Use:   "post <url>",
		Short: "Send a POST request",
		Long: `Send a POST request and print the response body.

Form fields given with -F are sent as multipart/form-data; key=@path uploads
a file. --data sends a raw body instead, read from a file with --data @path.
Without either an empty multipart form is sent.

Examples:
  hitreq post https://api.example.com/login -F user=ada -F pass={{$PASSWORD}}
  hitreq post https://api.example.com/upload -F kind=avatar -F file=@me.png
  hitreq post https://api.example.com/users -H "Content-Type: application/json" --data '{"name":"ada"}'
  hitreq post https://api.example.com/users --data @user.json --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, f, args[0])
		},
	}

	addRequestFlags(cmd, &f.requestFlags)
	cmd.Flags().StringArrayVarP(&f.form, "form", "F", nil, "Multipart field key=value or file key=@path (repeatable)")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Raw request body, or @path to read it from a file")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Re-send whenever a body or upload file changes")
	return cmd
}

func runPost(cmd *cobra.Command, f *postFlags, rawURL string) error {
	s, err := newSession(cmd, &f.requestFlags)
	if err != nil {
		return err
	}

	send, files, err := postSender(f, s.resolver)
	if err != nil {
		return usageError(err)
	}
	if f.watch && len(files) == 0 {
		return usageError(errors.New("--watch needs a body or upload file (--data @path or -F key=@path)"))
	}

	err = s.execute(cmd.Context(), rawURL, f.headers, send)
	if !f.watch {
		return err
	}

	// Sends from the debounce timer must not overlap on the client.
	var mu sync.Mutex
	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n")
	return watchFiles(cmd.Context(), files, s.log, func(path string) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\nRe-sending...\n\n", path)
		if err := s.execute(cmd.Context(), rawURL, f.headers, send); err != nil {
			s.log.WithError(err).Debug("Re-send failed")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n")
	})
}

// postSender picks the body mode from the flags. files lists the paths the
// body is read from.
func postSender(f *postFlags, resolver *env.Resolver) (sendFunc, []string, error) {
	if f.data != "" && len(f.form) > 0 {
		return nil, nil, errors.New("--data and -F cannot be used together")
	}

	if path, ok := strings.CutPrefix(f.data, "@"); ok {
		if _, err := os.Stat(path); err != nil {
			return nil, nil, fmt.Errorf("--data: %w", err)
		}
		// Read on every send so --watch picks up edits.
		send := func(ctx context.Context, client *http.Client, u string) (*http.Result, error) {
			body, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			return client.PostRaw(ctx, u, resolver.Resolve(string(body)))
		}
		return send, []string{path}, nil
	}

	if f.data != "" {
		send := func(ctx context.Context, client *http.Client, u string) (*http.Result, error) {
			return client.PostRaw(ctx, u, resolver.Resolve(f.data))
		}
		return send, nil, nil
	}

	if len(f.form) > 0 {
		fields, files, err := parseFormFields(f.form)
		if err != nil {
			return nil, nil, err
		}
		send := func(ctx context.Context, client *http.Client, u string) (*http.Result, error) {
			resolved := make([]http.FormField, len(fields))
			for i, field := range fields {
				field.Value = resolver.Resolve(field.Value)
				resolved[i] = field
			}
			return client.PostMultipart(ctx, u, resolved)
		}
		return send, files, nil
	}

	send := func(ctx context.Context, client *http.Client, u string) (*http.Result, error) {
		return client.Post(ctx, u, nil)
	}
	return send, nil, nil
}

// parseFormFields reads -F arguments in order. key=@path becomes a file part.
func parseFormFields(args []string) ([]http.FormField, []string, error) {
	var (
		fields []http.FormField
		files  []string
	)
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, nil, fmt.Errorf("invalid -F value %q, expected key=value or key=@path", arg)
		}
		if path, ok := strings.CutPrefix(value, "@"); ok {
			if _, err := os.Stat(path); err != nil {
				return nil, nil, fmt.Errorf("-F %s: %w", key, err)
			}
			fields = append(fields, http.FormField{Name: key, Path: path})
			files = append(files, path)
			continue
		}
		fields = append(fields, http.FormField{Name: key, Value: value})
	}
	return fields, files, nil
}
