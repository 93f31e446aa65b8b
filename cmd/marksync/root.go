package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/app"
	"github.com/dshills/marksync/internal/config"
	"github.com/dshills/marksync/internal/config/loader"
	"github.com/dshills/marksync/internal/log"
)

const envPrefix = "MARKSYNC"

// Flag names. They double as viper keys; MARKSYNC_LOG_LEVEL sets log-level.
const (
	flagConfig             = "config"
	flagLogLevel           = "log-level"
	flagLogFile            = "log-file"
	flagSuggestWhileTyping = "suggest-while-typing"
	flagLocale             = "locale"
	flagScript             = "script"
)

// settingSections are the top-level config sections read from MARKSYNC_
// variables. Other variables belong to the flags.
var settingSections = []string{"editor", "appearance"}

// cli holds the state shared by the commands of one invocation.
type cli struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{v: viper.New(), stdin: stdin, stdout: stdout, stderr: stderr}
}

func (c *cli) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "marksync",
		Short:         "Host harness for the markdown editing core",
		Long:          `marksync runs an editing session as a native host would, either interactively in the terminal or by replaying a scripted event log.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	pf := root.PersistentFlags()
	pf.StringP(flagConfig, "c", "", "settings file (.toml, .yaml or .yml)")
	pf.String(flagLogLevel, "info", "log level (debug, info, warn, error)")
	pf.String(flagLogFile, "", "write JSON logs to this file")
	pf.Bool(flagSuggestWhileTyping, false, "request completions while typing")
	pf.String(flagLocale, "", "document locale, e.g. en or ja")
	pf.String(flagScript, "", "Lua hook script")

	for _, name := range []string{flagConfig, flagLogLevel, flagLogFile, flagSuggestWhileTyping, flagLocale, flagScript} {
		_ = c.v.BindPFlag(name, pf.Lookup(name))
	}
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(c.editCommand(), c.replayCommand())
	return root
}

// logger builds the root logger. Without a log file, console logs go to
// fallback; a nil fallback discards them.
func (c *cli) logger(fallback io.Writer) (*zap.Logger, func(), error) {
	level := c.v.GetString(flagLogLevel)
	if !log.ValidLevel(level) {
		return nil, nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", level)
	}
	if path := c.v.GetString(flagLogFile); path != "" {
		return log.OpenFile(path, log.ParseLevel(level))
	}
	if fallback == nil {
		return log.Nop(), func() {}, nil
	}
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Output = fallback
	logger := log.New(cfg)
	return logger, func() { _ = logger.Sync() }, nil
}

// newApp creates a session and applies settings: the config file, then
// MARKSYNC_ variables, then flags.
func (c *cli) newApp(opts app.Options) (*app.App, error) {
	opts.ScriptPath = c.v.GetString(flagScript)
	a, err := app.New(opts)
	if err != nil {
		return nil, err
	}
	if err := c.applySettings(a); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (c *cli) applySettings(a *app.App) error {
	if path := c.v.GetString(flagConfig); path != "" {
		if err := c.applyFile(a, path); err != nil {
			return err
		}
	}

	env, err := loader.NewEnvLoader(envPrefix + "_").Load()
	if err != nil {
		return err
	}
	if env = sections(env, settingSections); len(env) > 0 {
		if err := a.ApplyConfig(env, config.SourceEnv); err != nil {
			return fmt.Errorf("environment settings: %w", err)
		}
	}

	if flags := c.flagSettings(); len(flags) > 0 {
		if err := a.ApplyConfig(flags, config.SourceCLI); err != nil {
			return fmt.Errorf("flag settings: %w", err)
		}
	}
	return nil
}

func (c *cli) applyFile(a *app.App, path string) error {
	values, err := loader.LoadAll(loader.NewFileLoader(path))
	if err != nil {
		return err
	}
	if err := a.ApplyConfig(values, config.SourceFile); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *cli) flagSettings() map[string]any {
	values := make(map[string]any)
	if c.v.IsSet(flagSuggestWhileTyping) {
		values[config.PathSuggestWhileTyping] = c.v.GetBool(flagSuggestWhileTyping)
	}
	if locale := c.v.GetString(flagLocale); locale != "" {
		values[config.PathLocale] = locale
	}
	return values
}

// sections keeps the named top-level keys of values.
func sections(values map[string]any, names []string) map[string]any {
	out := make(map[string]any)
	for _, name := range names {
		if v, ok := values[name]; ok {
			out[name] = v
		}
	}
	return out
}
