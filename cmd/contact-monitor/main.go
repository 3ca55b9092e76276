package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v3"

	"contact-monitor/internal/app"
	"contact-monitor/internal/config"
	"contact-monitor/internal/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := run(ctx, os.Args, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and maps the outcome to a process exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	if err := newCommand().Run(ctx, args); err != nil {
		fmt.Fprintln(stderr, "contact-monitor:", err)
		return 1
	}
	return 0
}

func newCommand() *cli.Command {
	opts := config.Options{}

	withApp := func(fn func(ctx context.Context, a *app.App, c *cli.Command) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			application, cleanup, err := di.InitializeApp(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer cleanup()
			return fn(ctx, application, c)
		}
	}

	withState := func(fn func(ctx context.Context, s *app.State, c *cli.Command) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			state, cleanup, err := di.InitializeState(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize state store: %w", err)
			}
			defer cleanup()
			return fn(ctx, state, c)
		}
	}

	check := withApp(func(ctx context.Context, a *app.App, _ *cli.Command) error {
		_, err := a.Check(ctx)
		return err
	})

	return &cli.Command{
		Name:      "contact-monitor",
		Usage:     "Notify about new contact form messages",
		UsageText: "contact-monitor [global options] [command]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to a YAML config file",
				Sources:     cli.EnvVars("CONTACT_MONITOR_CONFIG"),
				Destination: &opts.ConfigFile,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "dotenv file to load (default .env, ignored when missing)",
				Destination: &opts.EnvFile,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error)",
				Destination: &opts.LogLevel,
			},
		},
		Action: check,
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Run one check cycle; exits non-zero on failure",
				Action: check,
			},
			{
				Name:  "watch",
				Usage: "Check now and then on SCHEDULE_CRON until interrupted",
				Action: withApp(func(ctx context.Context, a *app.App, _ *cli.Command) error {
					return a.Watch(ctx)
				}),
			},
			{
				Name:  "state",
				Usage: "Inspect or overwrite the stored message count",
				Commands: []*cli.Command{
					{
						Name:  "get",
						Usage: "Print the stored count and recent history",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "history", Usage: "number of history rows to print (sqlite backend)", Value: 0},
						},
						Action: withState(runStateGet),
					},
					{
						Name:      "set",
						Usage:     "Overwrite the stored count",
						ArgsUsage: "<count>",
						Action:    withState(runStateSet),
					},
				},
			},
		},
	}
}

func runStateGet(ctx context.Context, s *app.State, c *cli.Command) error {
	out := c.Root().Writer
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, count)

	limit := int(c.Int("history"))
	if limit <= 0 {
		return nil
	}
	records, ok, err := s.History(ctx, limit)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("history requires the sqlite state backend")
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s\t%d\n", r.SavedAt.Format("2006-01-02 15:04:05"), r.Count)
	}
	return nil
}

func runStateSet(ctx context.Context, s *app.State, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("usage: contact-monitor state set <count>")
	}
	n, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid count %q: %w", c.Args().First(), err)
	}
	return s.SetCount(ctx, n)
}
