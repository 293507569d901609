// Command covered is the command-line client for the Covered home inventory
// backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/covered/internal/app"
	"github.com/and161185/covered/internal/config"
	"github.com/and161185/covered/internal/logging"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// cli carries what every subcommand needs. Tests replace openApp and the
// streams.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfgPath string
	apiURL  string
	storage string
	debug   bool

	cfg *config.Config
	log *zap.Logger

	// openApp builds the client core; overridden in tests.
	openApp func(ctx context.Context, cfg *config.Config, opts app.Options) (*app.App, error)
	// readPassword prompts without echo when in is a terminal.
	readPassword func(prompt string) (string, error)
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	c := &cli{in: in, out: out, errOut: errOut, openApp: app.New}
	c.readPassword = c.promptPassword
	return c
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "covered",
		Short:         "Catalogue your home inventory from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&c.cfgPath, "config", "c", config.DefaultPath(), "config file (TOML)")
	pf.StringVar(&c.apiURL, "api", "", "backend base URL (overrides config)")
	pf.StringVar(&c.storage, "storage", "", "local storage backend: file, sqlite or memory")
	pf.BoolVar(&c.debug, "debug", false, "verbose console logging")

	root.AddCommand(
		c.versionCmd(),
		c.configCmd(),
		c.signupCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.openURLCmd(),
		c.homesCmd(),
		c.roomsCmd(),
		c.itemsCmd(),
		c.pushTokenCmd(),
	)
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	return root
}

func (c *cli) loadConfig() error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.storage != "" {
		cfg.Storage.Type = c.storage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level := cfg.LogLevel
	if c.debug {
		level = "debug"
	}
	log, err := logging.New(level, true)
	if err != nil {
		return err
	}
	c.cfg, c.log = cfg, log
	return nil
}

// withApp opens the client core, resolves the stored session and runs fn.
func (c *cli) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := c.openApp(ctx, c.cfg, app.Options{Logger: c.log})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			c.log.Warn("close", zap.Error(cerr))
		}
	}()
	if res := a.Start(ctx); !res.Success {
		c.log.Debug("no stored session", zap.String("error", res.Error))
	}
	return fn(a)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// failure turns a result's message into the error the command exits with.
func failure(msg string, err error) error {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "request failed"
	}
	return errors.New(msg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	if err := c.rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
