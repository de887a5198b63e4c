package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter hitreq configuration",
		Long: `Create a starter configuration in the current directory.

This creates:
  - .hitreq.yaml - Defaults for timeout, headers and the cookie jar
  - .env         - Template variables used by the example headers

Examples:
  hitreq init
  hitreq init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommand(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	return cmd
}

func initCommand(cmd *cobra.Command, force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	envFile := filepath.Join(cwd, env.DefaultDotEnv)

	if !force {
		for _, f := range []string{configFile, envFile} {
			if _, err := os.Stat(f); err == nil {
				return usageError(fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = []string{
		"Accept: application/json",
		"Authorization: Bearer {{token}}",
	}
	cfg.CookieJar = ".hitreq-cookies.txt"
	cfg.UserAgent = "hitreq/{{$USER}}"

	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	envContent := `# Variables for {{name}} templates in URLs, headers and form data
baseUrl=http://localhost:3000
token=change-me
`
	if err := os.WriteFile(envFile, []byte(envContent), 0600); err != nil {
		return fmt.Errorf("failed to create env file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", envFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitreq initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitreq get {{baseUrl}}/health' to send a request.\n")

	return nil
}
