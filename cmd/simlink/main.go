package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/helios-robotics/simlink/internal/adapters/log"
	"github.com/helios-robotics/simlink/internal/cliconfig"
	"github.com/helios-robotics/simlink/internal/ports"
	"github.com/helios-robotics/simlink/pkg/simlink"
)

const helpDescription = `
Remote control for a running robotics simulation.

simlink opens a TCP channel to the simulation host, sends commands and
configuration as JSON envelopes and prints the status stream it gets back.
Settings come from $HOME/.simlink/config.toml, SIMLINK_* environment
variables and flags, in increasing order of precedence.
`

var exampleUsage = strings.TrimSpace(`
  simlink send start
  simlink send spawn robot=2 name=arm --host 10.0.0.5
  simlink push-config ./sim_config.json
  simlink attach --connect --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration and the streams shared by all
// subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     *logAdapter.ZerologAdapter

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	c := &cli{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := c.rootCmd().ExecuteContext(context.Background()); err != nil {
		if c.log != nil {
			c.log.Error("simlink", ports.Err(err))
		} else {
			fmt.Fprintln(os.Stderr, "simlink:", err)
		}
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	c.cfg = cliconfig.DefaultConfig()

	root := &cobra.Command{
		Use:           "simlink",
		Short:         "Remote control for a running robotics simulation",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.resolve(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.simlink/config.toml)")
	f.StringVar(&c.cfg.Host, "host", c.cfg.Host, "simulation host")
	f.IntVarP(&c.cfg.Port, "port", "p", c.cfg.Port, "simulation port")
	f.DurationVar(&c.cfg.ConnectTimeout, "timeout", c.cfg.ConnectTimeout, "connect timeout")
	f.DurationVar(&c.cfg.WriteTimeout, "write-timeout", c.cfg.WriteTimeout, "write deadline per message")
	f.DurationVar(&c.cfg.DisconnectGrace, "grace", c.cfg.DisconnectGrace, "how long disconnect waits for the receiver")
	f.IntVar(&c.cfg.Retries, "retries", c.cfg.Retries, "connect attempts before giving up (0 retries forever)")
	f.StringVar(&c.cfg.Framing, "framing", c.cfg.Framing, "message framing: newline or raw")
	f.IntVar(&c.cfg.MaxFrameBytes, "max-frame-bytes", c.cfg.MaxFrameBytes, "largest inbound frame accepted")
	f.IntVar(&c.cfg.QueueCapacity, "queue-capacity", c.cfg.QueueCapacity, "status events buffered before the oldest is dropped")
	f.StringVar(&c.cfg.SimConfigPath, "sim-config", c.cfg.SimConfigPath, "simulation configuration file (JSON)")
	f.BoolVar(&c.cfg.Watch, "watch", c.cfg.Watch, "push the simulation configuration whenever its file changes")
	f.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level: debug, info, warn or error")
	f.StringVar(&c.cfg.LogFormat, "log-format", c.cfg.LogFormat, "log format: auto, console or json")
	f.BoolVar(&c.cfg.NoColor, "no-color", c.cfg.NoColor, "disable colored status output")

	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.AddCommand(
		c.sendCmd(),
		c.pushConfigCmd(),
		c.configCmd(),
		c.attachCmd(),
	)
	return root
}

// resolve layers file, environment and flag settings and builds the logger.
func (c *cli) resolve(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	log, err := cliconfig.Logger(c.cfg, c.errOut)
	if err != nil {
		return err
	}
	c.log = log
	c.log.Debug("configuration", ports.Any("config", c.cfg))
	return nil
}

// newChannel builds a channel from the resolved configuration.
func (c *cli) newChannel(opts ...simlink.Option) (*simlink.Channel, error) {
	opts = append([]simlink.Option{simlink.WithLogger(c.log)}, opts...)
	ch, err := simlink.New(c.cfg.ChannelConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	return ch, nil
}
