package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/chronicler/internal/cliconfig"
	"github.com/bft-labs/chronicler/pkg/chronicler"
	"github.com/bft-labs/chronicler/pkg/log"
)

const helpDescription = `
Report log events to a chronicler collector from scripts and services.

Records are batched: informational records wait for company (up to five
records or twenty seconds), errors and fatals are sent at once, and
everything pending is flushed when the command exits.

Configuration is read from $HOME/.chronicler/config.toml, then from
CHRONICLER_* environment variables; flags win over both.
`

var exampleUsage = strings.TrimSpace(`
  chronicler send --base-endpoint http://127.0.0.1:8090 --severity error "payment failed"
  tail -f app.log | chronicler tail
  chronicler tail --follow /var/log/app.log
  chronicler report --title "Checkout broken" --body "Nothing happens on submit"
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries state resolved once in the root PersistentPreRunE.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  *log.ZerologAdapter
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "chronicler",
		Short:         "Batch and ship log events to a collector",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}
	c.bindFlags(root.PersistentFlags())

	root.AddCommand(
		newSendCommand(c),
		newTailCommand(c),
		newPipeCommand(c),
		newReportCommand(c),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chronicler: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.chronicler/config.toml)")
	fs.StringVar(&c.cfg.BaseEndpoint, "base-endpoint", c.cfg.BaseEndpoint, "collector root URL")
	fs.StringVar(&c.cfg.Endpoint, "endpoint", c.cfg.Endpoint, "full URL records are posted to (instead of base-endpoint)")
	fs.StringVar(&c.cfg.FormEndpoint, "form-endpoint", c.cfg.FormEndpoint, "full URL user error forms are posted to (with endpoint)")
	fs.StringVar(&c.cfg.Key, "key", c.cfg.Key, "collector key sent in the X-Log header")
	fs.StringVar(&c.cfg.Page, "page", c.cfg.Page, "page stamped on every record (default: app://<host>/<exe>)")
	fs.StringVar(&c.cfg.UserID, "user-id", c.cfg.UserID, "user id attached to records")
	fs.StringVar(&c.cfg.Username, "username", c.cfg.Username, "username attached to records")
	fs.DurationVar(&c.cfg.FlushDelay, "flush-delay", c.cfg.FlushDelay, "how long low-severity records wait before a flush")
	fs.IntVar(&c.cfg.MaxBuffer, "max-buffer", c.cfg.MaxBuffer, "pending records that force a flush")
	fs.IntVar(&c.cfg.MaxAttempts, "max-attempts", c.cfg.MaxAttempts, "delivery attempts per record")
	fs.DurationVar(&c.cfg.RetryStep, "retry-step", c.cfg.RetryStep, "backoff step between attempts")
	fs.DurationVar(&c.cfg.HTTPTimeout, "timeout", c.cfg.HTTPTimeout, "HTTP timeout per attempt")
	fs.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "diagnostic log level (debug, info, warn, error)")
	fs.BoolVar(&c.cfg.Disable, "disable", c.cfg.Disable, "accept records but send nothing")
}

func (c *cli) load(cmd *cobra.Command) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if err := cliconfig.Load(&c.cfg, c.cfgPath, changed); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	logger, err := log.NewConsoleLogger(c.cfg.LogLevel)
	if err != nil {
		return err
	}
	c.logger = logger
	c.logger.Debug("configuration", log.Any("config", c.cfg.Masked()))
	return nil
}

// newClient builds a client from the resolved configuration.
func (c *cli) newClient() (*chronicler.Client, error) {
	opts := []chronicler.Option{chronicler.WithLogger(c.logger)}
	if id := c.cfg.UserIDValue(); id != nil {
		opts = append(opts, chronicler.WithUserIDFunc(func() *chronicler.UserID { return id }))
	}
	if c.cfg.Username != "" {
		name := c.cfg.Username
		opts = append(opts, chronicler.WithUsernameFunc(func() string { return name }))
	}

	client, err := chronicler.New(c.cfg.ClientConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// run starts a client, hands it to fn, and stops it (flushing whatever
// is pending) once fn returns or the process is interrupted.
func (c *cli) run(ctx context.Context, fn func(ctx context.Context, client *chronicler.Client) error) error {
	client, err := c.newClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The signal only ends fn; Stop owns the engine shutdown and its flush.
	if err := client.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start client: %w", err)
	}

	runErr := fn(ctx, client)
	if ctx.Err() != nil {
		c.logger.Info("received signal, stopping")
	}

	if err := client.Stop(); err != nil && runErr == nil {
		runErr = fmt.Errorf("stop client: %w", err)
	}
	return runErr
}
