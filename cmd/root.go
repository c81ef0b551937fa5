package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/damon-houk/anvil-basic-tx/internal/application/service"
	"github.com/damon-houk/anvil-basic-tx/internal/config"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/api"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/db"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/logger"
)

const (
	configFlag      = "config"
	apiURLFlag      = "api-url"
	apiKeyFlag      = "api-key"
	timeoutFlag     = "timeout"
	logLevelFlag    = "log-level"
	logPrettyFlag   = "log-pretty"
	historyPathFlag = "history-path"
)

// app carries what every subcommand needs once the configuration is loaded
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	log    logger.Logger
	stdout io.Writer
	stderr io.Writer
}

// Execute builds the root command and runs it. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command tree and returns the process exit status
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand(stdout, stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Failed to execute command", map[string]interface{}{"error": err})
		return 1
	}
	return 0
}

// NewRootCommand creates the basictx command tree writing to the given streams.
// Without a subcommand it performs a build.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "basictx",
		Short: "Request an unsigned Cardano transaction from the Anvil build API",
		Long: `basictx sends a transfer (change address, receiver, lovelace) to the Anvil
transaction-building service and prints the JSON it answers with.

Defaults target preprod and can be overridden through basictx.yaml,
BASICTX_* environment variables or flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd)
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.String(configFlag, "", "path to a YAML config file (default ./basictx.yaml if present)")
	flags.String(apiURLFlag, config.DefaultAPIURL, "base URL of the Anvil services API")
	flags.String(apiKeyFlag, "", "value of the x-api-key header")
	flags.Duration(timeoutFlag, 0, "HTTP timeout for API calls, 0 for none")
	flags.String(logLevelFlag, "info", "log level: debug, info, warn or error")
	flags.Bool(logPrettyFlag, true, "human-readable logs instead of JSON lines")
	flags.String(historyPathFlag, "", "directory of the build history store; empty disables history")

	a.bind(flags.Lookup(apiURLFlag), "api.url")
	a.bind(flags.Lookup(apiKeyFlag), "api.key")
	a.bind(flags.Lookup(timeoutFlag), "api.timeout")
	a.bind(flags.Lookup(logLevelFlag), "log.level")
	a.bind(flags.Lookup(logPrettyFlag), "log.pretty")
	a.bind(flags.Lookup(historyPathFlag), "history.path")

	addBuildFlags(rootCmd)

	rootCmd.AddCommand(
		newBuildCommand(a),
		newHealthCommand(a),
		newHistoryCommand(a),
		newSandboxCommand(a),
	)

	return rootCmd
}

func (a *app) bind(flag *pflag.Flag, key string) {
	// only fails on a nil flag, which would be a programming error
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// load reads the configuration and installs the logger
func (a *app) load(cmd *cobra.Command) error {
	configFile, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load(a.v, configFile)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.New(a.stderr, level, cfg.Log.Pretty)
	logger.SetDefaultLogger(a.log)

	a.log.Debug("Configuration loaded", map[string]interface{}{
		"api_url":     cfg.API.URL,
		"api_timeout": cfg.API.Timeout.String(),
		"history":     cfg.History.Path != "",
	})

	return nil
}

// newService wires the API client and, when configured, the history store.
// The returned close function must always be called.
func (a *app) newService() (*service.BuildService, func(), error) {
	client := api.NewAnvilAPIClient(a.cfg.API.URL, a.cfg.API.Key, a.cfg.API.Timeout, a.log)

	if a.cfg.History.Path == "" {
		return service.NewBuildService(client, nil, a.log), func() {}, nil
	}

	badgerDB, err := db.Open(a.cfg.History.Path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "history store")
	}

	closeFn := func() {
		if err := badgerDB.Close(); err != nil {
			a.log.Warn("Error closing history store", map[string]interface{}{"error": err})
		}
	}

	repo := db.NewBadgerBuildRecordRepository(badgerDB)
	return service.NewBuildService(client, repo, a.log), closeFn, nil
}

// writeJSON prints v as indented JSON
func (a *app) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
