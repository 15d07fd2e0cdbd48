package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helios-robotics/simlink/internal/cliconfig"
	"github.com/helios-robotics/simlink/pkg/simlink"
)

func (c *cli) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <command> [key=value...]",
		Short: "Connect, send one command and disconnect",
		Long: `Connect to the simulation, send one command envelope and disconnect.

Parameter values are decoded as JSON when they parse as JSON (numbers,
booleans, quoted strings, arrays, objects) and sent as plain strings
otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return c.oneShot(cmd.Context(), func(ch *simlink.Channel) error {
				return ch.SendCommand(args[0], params)
			})
		},
	}
}

func (c *cli) pushConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push-config [file]",
		Short: "Send the simulation configuration file",
		Long: `Connect to the simulation and send the configuration file as a config
envelope. Without an argument the --sim-config file is used; when that file
does not exist the built-in defaults are sent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.oneShot(cmd.Context(), func(ch *simlink.Channel) error {
				var (
					cfg simlink.ConfigPayload
					err error
				)
				if path != "" {
					cfg, err = ch.LoadConfig(cmd.Context(), path)
				} else {
					cfg, err = ch.LoadOrDefaultConfig(cmd.Context(), "")
				}
				if err != nil {
					return err
				}
				for _, problem := range cfg.Check() {
					c.log.Warn(problem)
				}
				return ch.SendConfig(cfg)
			})
		},
	}
}

// oneShot connects, runs fn and disconnects, printing the status events the
// exchange produced.
func (c *cli) oneShot(ctx context.Context, fn func(*simlink.Channel) error) error {
	ch, err := c.newChannel()
	if err != nil {
		return err
	}
	if err := ch.Open(ctx); err != nil {
		return err
	}
	defer ch.Close()

	p := newPrinter(c.out, c.useColor())
	defer func() { p.printAll(ch.Events().Drain()) }()

	if err := ch.ConnectWithRetry(ctx, c.cfg.Retries); err != nil {
		return fmt.Errorf("connect %s: %w", c.cfg.ChannelConfig().Endpoint(), err)
	}
	runErr := fn(ch)
	if err := ch.Disconnect(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (c *cli) useColor() bool {
	return cliconfig.UseColor(c.cfg, c.out)
}
