package cmd

import (
	"context"
	"fmt"
	neturl "net/url"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/spf13/cobra"
)

type getFlags struct {
	requestFlags
	data []string
}

func newGetCmd() *cobra.Command {
	f := &getFlags{}

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Send a GET request",
		Long: `Send a GET request and print the response body.

Each -d pair is appended to the URL as a query string. The query is joined
with "?" even if the URL already has one.

Examples:
  hitreq get https://api.example.com/users -d page=2
  hitreq get https://api.example.com/me -H "Authorization: Bearer {{token}}"
  hitreq get https://api.example.com/users/1 --select name
  hitreq get https://api.example.com/ -i --select header.Content-Type`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, f, args[0])
		},
	}

	addRequestFlags(cmd, &f.requestFlags)
	cmd.Flags().StringArrayVarP(&f.data, "data", "d", nil, "Query parameter key=value (repeatable)")
	return cmd
}

func runGet(cmd *cobra.Command, f *getFlags, rawURL string) error {
	query, err := parsePairs(f.data, "-d")
	if err != nil {
		return usageError(err)
	}

	s, err := newSession(cmd, &f.requestFlags)
	if err != nil {
		return err
	}

	return s.execute(cmd.Context(), rawURL, f.headers, func(ctx context.Context, client *http.Client, u string) (*http.Result, error) {
		return client.Get(ctx, u, s.resolver.ResolveValues(query))
	})
}

// parsePairs reads key=value arguments. A nil result means no pairs.
func parsePairs(pairs []string, flag string) (neturl.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := make(neturl.Values, len(pairs))
	for _, p := range pairs {
		key, value, found := strings.Cut(p, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid %s value %q, expected key=value", flag, p)
		}
		values.Add(key, value)
	}
	return values, nil
}
