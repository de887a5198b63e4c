package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hitreq",
		Short: "One HTTP request at a time. No magic.",
		Long: `hitreq sends a single GET or POST request and prints the response body.

Headers, timeouts and a persistent cookie jar are configured with flags,
HITREQ_* environment variables or a .hitreq.yaml file. URLs, headers and
form data may use {{variable}}, {{$ENV}} and {{function()}} templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGetCmd())
	root.AddCommand(newPostCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(versionCmd())
	root.AddCommand(completionCmd())
	return root
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) || !exitErr.reported {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(exitCode(err))
	}
}
