package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/helios-robotics/simlink/internal/adapters/fs"
	"github.com/helios-robotics/simlink/internal/cliconfig"
	"github.com/helios-robotics/simlink/pkg/simlink"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
	}
	cmd.AddCommand(c.configInitCmd(), c.configShowCmd())
	return cmd
}

func (c *cli) configInitCmd() *cobra.Command {
	var withSim bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to the config file",
		Long: `Write the effective settings to the config file. An existing file is
left untouched. With --sim the default simulation configuration is also
written to the --sim-config path when that file is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfgPath
			if path == "" {
				path = cliconfig.DefaultConfigPath()
			}
			if path == "" {
				return errors.New("no config path: pass --config")
			}
			if err := cliconfig.WriteFileConfig(path, cliconfig.NewFileConfig(c.cfg)); err != nil {
				if errors.Is(err, os.ErrExist) {
					return fmt.Errorf("%s already exists", path)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)

			if !withSim {
				return nil
			}
			if c.cfg.SimConfigPath == "" {
				return errors.New("no simulation config path: pass --sim-config")
			}
			exists, err := fs.Exists(c.cfg.SimConfigPath)
			if err != nil || exists {
				return err
			}
			repo := fs.NewConfigFileRepository()
			if err := repo.Save(cmd.Context(), c.cfg.SimConfigPath, simlink.DefaultConfigPayload()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", c.cfg.SimConfigPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSim, "sim", false, "also write the default simulation configuration")
	return cmd
}

func (c *cli) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings and simulation configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetTitle("simlink")
			t.AppendHeader(table.Row{"Setting", "Value"})
			t.AppendRows([]table.Row{
				{"host", c.cfg.Host},
				{"port", c.cfg.Port},
				{"connect_timeout", c.cfg.ConnectTimeout},
				{"write_timeout", c.cfg.WriteTimeout},
				{"disconnect_grace", c.cfg.DisconnectGrace},
				{"retries", c.cfg.Retries},
				{"framing", c.cfg.Framing},
				{"max_frame_bytes", c.cfg.MaxFrameBytes},
				{"queue_capacity", c.cfg.QueueCapacity},
				{"sim_config", c.cfg.SimConfigPath},
				{"watch", c.cfg.Watch},
				{"log_level", c.cfg.LogLevel},
				{"log_format", c.cfg.LogFormat},
			})
			t.Render()

			payload, source, err := c.loadSimConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			renderPayload(out, payload, source)
			return nil
		},
	}
}

// loadSimConfig reads the --sim-config file, falling back to the defaults.
func (c *cli) loadSimConfig(cmd *cobra.Command) (simlink.ConfigPayload, string, error) {
	repo := fs.NewConfigFileRepository()
	payload, err := repo.Load(cmd.Context(), c.cfg.SimConfigPath)
	switch {
	case err == nil:
		return payload, c.cfg.SimConfigPath, nil
	case errors.Is(err, os.ErrNotExist):
		return simlink.DefaultConfigPayload(), "defaults", nil
	default:
		return nil, "", err
	}
}

func renderPayload(out io.Writer, payload simlink.ConfigPayload, source string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("simulation config (" + source + ")")
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, k := range payload.Keys() {
		t.AppendRow(table.Row{k, formatValue(payload[k])})
	}
	for _, problem := range payload.Check() {
		t.AppendFooter(table.Row{"warning", problem})
	}
	t.Render()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
