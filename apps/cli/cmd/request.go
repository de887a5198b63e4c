package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/capture"
	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/output"
	"github.com/abdul-hamid-achik/hitreq/packages/schema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// requestFlags are the flags shared by get and post.
type requestFlags struct {
	headers       []string
	include       bool
	timeout       int
	maxRedirects  int
	cookieJar     string
	insecureHTTPS bool
	proxy         string
	userAgent     string
	rateLimit     float64
	selects       []string
	schemaFile    string
	envFile       string
	vars          []string
	configFile    string
	output        string
	verbose       bool
	noColor       bool
}

func addRequestFlags(cmd *cobra.Command, f *requestFlags) {
	flags := cmd.Flags()

	// Request flags
	flags.StringArrayVarP(&f.headers, "header", "H", nil, `Request header "Name: value" (repeatable)`)
	flags.BoolVarP(&f.include, "include", "i", getEnvBool("HITREQ_INCLUDE", false), "Print the response header block with the body (env: HITREQ_INCLUDE)")
	flags.IntVar(&f.timeout, "timeout", getEnvInt("HITREQ_TIMEOUT", 0), "Connect and total timeout in seconds (default 30) (env: HITREQ_TIMEOUT)")
	flags.IntVar(&f.maxRedirects, "max-redirects", getEnvInt("HITREQ_MAX_REDIRECTS", 0), "Maximum redirects to follow (default 30) (env: HITREQ_MAX_REDIRECTS)")
	flags.StringVarP(&f.userAgent, "user-agent", "A", getEnvString("HITREQ_USER_AGENT", ""), "User-Agent header (env: HITREQ_USER_AGENT)")

	// Network flags
	flags.StringVarP(&f.cookieJar, "cookie-jar", "c", getEnvString("HITREQ_COOKIE_JAR", ""), "Read and store cookies in this file; .db/.sqlite use SQLite (env: HITREQ_COOKIE_JAR)")
	flags.BoolVar(&f.insecureHTTPS, "insecure-https", getEnvBool("HITREQ_INSECURE_HTTPS", false), `Skip TLS verification for URLs containing "https" (env: HITREQ_INSECURE_HTTPS)`)
	flags.StringVar(&f.proxy, "proxy", getEnvString("HITREQ_PROXY", ""), "Proxy URL (env: HITREQ_PROXY)")
	flags.Float64Var(&f.rateLimit, "rate-limit", getEnvFloat("HITREQ_RATE_LIMIT", 0), "Maximum requests per second when re-sending (env: HITREQ_RATE_LIMIT)")

	// Template flags
	flags.StringVar(&f.envFile, "env-file", getEnvString("HITREQ_ENV_FILE", ""), "Path to .env file for {{variable}} templates (env: HITREQ_ENV_FILE)")
	flags.StringArrayVar(&f.vars, "var", nil, "Template variable name=value (repeatable)")
	flags.StringVar(&f.configFile, "config", getEnvString("HITREQ_CONFIG", ""), "Path to config file (env: HITREQ_CONFIG)")

	// Output flags
	flags.StringArrayVar(&f.selects, "select", nil, "Print only this value: a JSON path, header.<Name>, status or duration (repeatable)")
	flags.StringVar(&f.schemaFile, "schema", "", "Validate the response body against this JSON schema file")
	flags.StringVarP(&f.output, "output", "o", getEnvString("HITREQ_OUTPUT", "console"), "Output format: console, json (env: HITREQ_OUTPUT)")
	flags.BoolVarP(&f.verbose, "verbose", "v", getEnvBool("HITREQ_VERBOSE", false), "Print a status summary and debug logs to stderr (env: HITREQ_VERBOSE)")
	flags.BoolVar(&f.noColor, "no-color", getEnvBool("HITREQ_NO_COLOR", false), "Disable colored output (env: HITREQ_NO_COLOR)")
}

// flagConfig holds the flag values that override the config file.
func (f *requestFlags) flagConfig() *config.Config {
	cfg := &config.Config{
		Timeout:      f.timeout,
		MaxRedirects: f.maxRedirects,
		CookieJar:    f.cookieJar,
		Proxy:        f.proxy,
		UserAgent:    f.userAgent,
		RateLimit:    f.rateLimit,
		EnvFile:      f.envFile,
	}
	if f.include {
		cfg.IncludeHeader = config.BoolPtr(true)
	}
	if f.insecureHTTPS {
		cfg.InsecureHTTPS = config.BoolPtr(true)
	}
	if f.verbose {
		cfg.Verbose = config.BoolPtr(true)
	}
	if f.noColor {
		cfg.NoColor = config.BoolPtr(true)
	}
	return cfg
}

// session is everything a request command needs once flags and config are
// resolved.
type session struct {
	cfg       *config.Config
	log       *logrus.Logger
	resolver  *env.Resolver
	client    *http.Client
	formatter output.Formatter
	selects   []string
	validator *schema.Validator
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func newSession(cmd *cobra.Command, f *requestFlags) (*session, error) {
	fileConfig, err := config.LoadConfig(f.configFile)
	if err != nil {
		return nil, configError(fmt.Errorf("loading config: %w", err))
	}
	cfg := fileConfig.Merge(f.flagConfig())

	s := &session{
		cfg:     cfg,
		log:     newLogger(cmd.ErrOrStderr(), cfg.GetVerbose()),
		selects: f.selects,
	}

	switch strings.ToLower(f.output) {
	case "json":
		s.formatter = output.NewJSONFormatter(
			output.WithJSONWriter(cmd.OutOrStdout()),
			output.WithJSONErrWriter(cmd.ErrOrStderr()),
		)
	case "console", "":
		s.formatter = output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithErrWriter(cmd.ErrOrStderr()),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		)
	default:
		return nil, usageError(fmt.Errorf("unknown output format %q (use console or json)", f.output))
	}

	if s.resolver, err = newResolver(cfg, f.vars, s.log); err != nil {
		return nil, configError(err)
	}

	needsHeader := false
	for _, expr := range f.selects {
		sel, err := capture.ParseSelector(expr)
		if err != nil {
			return nil, usageError(fmt.Errorf("--select: %w", err))
		}
		needsHeader = needsHeader || sel.NeedsHeader()
	}

	if f.schemaFile != "" {
		if s.validator, err = schema.Load(f.schemaFile); err != nil {
			return nil, configError(err)
		}
	}

	if s.client, err = newClient(cfg, s.resolver, s.log, needsHeader); err != nil {
		return nil, &exitError{code: ExitNetworkError, err: err}
	}
	return s, nil
}

// newResolver collects template variables: HITREQ_VAR_* from the
// environment, then the env file, then --var flags.
func newResolver(cfg *config.Config, assignments []string, log logrus.FieldLogger) (*env.Resolver, error) {
	dotenv, err := env.LoadDotEnvFile(cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	env.Export(dotenv)

	r := env.NewResolver(log)
	r.SetVariables(env.MergeVariables(
		env.LoadSystemEnv(env.VarPrefix),
		dotenv,
		env.ParseAssignments(assignments),
	))
	return r, nil
}

func newClient(cfg *config.Config, resolver *env.Resolver, log logrus.FieldLogger, needsHeader bool) (*http.Client, error) {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "hitreq/" + version
	}

	return http.NewClient(
		http.WithLogger(log),
		http.WithTimeout(cfg.Timeout),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithResponseHeader(cfg.GetIncludeHeader() || needsHeader),
		http.WithInsecureHTTPS(cfg.GetInsecureHTTPS()),
		http.WithCookiePath(cfg.CookieJar),
		http.WithDefaultHeaders(resolver.ResolveLines(cfg.Headers)),
		http.WithUserAgent(resolver.Resolve(userAgent)),
		http.WithProxy(resolver.Resolve(cfg.Proxy)),
		http.WithRateLimit(cfg.RateLimit),
	)
}

// sendFunc issues the request on a client whose per-request headers are
// already set.
type sendFunc func(ctx context.Context, client *http.Client, rawURL string) (*http.Result, error)

// execute resolves the URL and header lines, sends and prints the outcome.
func (s *session) execute(ctx context.Context, rawURL string, headers []string, send sendFunc) error {
	rawURL = s.resolver.Resolve(rawURL)
	for _, line := range headers {
		if _, _, ok := http.ParseHeaderLine(line); !ok {
			return usageError(fmt.Errorf("invalid header %q, expected \"Name: value\"", line))
		}
	}
	if len(headers) > 0 {
		s.client.SetHeader(s.resolver.ResolveLines(headers)...)
	}

	result, err := send(ctx, s.client, rawURL)
	if err != nil {
		s.formatter.FormatError(err)
		return requestError(err)
	}

	return s.report(result)
}

func (s *session) report(result *http.Result) error {
	var failures []string

	if len(s.selects) > 0 {
		values, err := capture.SelectAll(result, s.selects)
		if err != nil {
			return usageError(err)
		}
		s.formatter.FormatSelection(values, s.selects)
		for _, expr := range s.selects {
			if _, ok := values[expr]; !ok {
				err := fmt.Errorf("nothing matched %q", expr)
				s.formatter.FormatWarning("Select", err)
				failures = append(failures, err.Error())
			}
		}
	} else if err := s.formatter.FormatResult(result); err != nil {
		return err
	}

	if s.validator != nil {
		if err := s.validator.Validate(result.Body); err != nil {
			s.formatter.FormatWarning("Schema", err)
			failures = append(failures, err.Error())
		}
	}

	if len(failures) > 0 {
		return checkFailure(errors.New(strings.Join(failures, "; ")))
	}
	return nil
}
