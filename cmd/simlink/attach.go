package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helios-robotics/simlink/internal/ports"
	"github.com/helios-robotics/simlink/pkg/simlink"
	"github.com/helios-robotics/simlink/plugins/configwatcher"
)

const attachHelp = `commands:
  connect [host:port]      connect to the configured or given endpoint
  disconnect               close the connection
  start | stop | pause | resume
  send <name> [key=value...]
  load [path]              load the simulation configuration
  save [path]              save the current configuration
  set key=value...         edit the current configuration
  show                     print the current configuration
  send-config              send the current configuration
  status                   print the connection state
  help
  quit`

func (c *cli) attachCmd() *cobra.Command {
	var connect bool
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Control the simulation interactively",
		Long: `Open an interactive session. Commands are read from stdin one per line
and the status stream is printed as it arrives. Type "help" for the command
list. With --watch the simulation configuration is pushed whenever its file
changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var opts []simlink.Option
			if c.cfg.Watch {
				opts = append(opts, configwatcher.WithDefaultConfigWatcher())
			}
			ch, err := c.newChannel(opts...)
			if err != nil {
				return err
			}
			if err := ch.Open(ctx); err != nil {
				return err
			}
			defer ch.Close()

			s := &session{
				ch:   ch,
				log:  c.log,
				p:    newPrinter(cmd.OutOrStdout(), c.useColor()),
				in:   cmd.InOrStdin(),
				done: make(chan struct{}),
			}
			s.p.verbose = c.cfg.LogLevel == "debug"
			return s.run(ctx, connect)
		},
	}
	cmd.Flags().BoolVar(&connect, "connect", false, "connect as soon as the session starts")
	return cmd
}

// session is one interactive attach: a line reader driving the channel and
// a goroutine printing its status stream.
type session struct {
	ch   *simlink.Channel
	log  ports.Logger
	p    *printer
	in   io.Reader
	done chan struct{}

	// current is the configuration edited by load, set and save.
	current simlink.ConfigPayload
}

func (s *session) run(ctx context.Context, connect bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.printEvents(ctx)
	defer func() { <-s.done }()
	defer cancel()

	cfg, err := s.ch.LoadOrDefaultConfig(ctx, "")
	if err != nil {
		s.p.errorf("%v", err)
		cfg = simlink.DefaultConfigPayload()
	}
	s.current = cfg

	if connect {
		s.exec(ctx, "connect")
	}

	lines := make(chan string)
	go readLines(s.in, lines)

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case line, ok := <-lines:
			if !ok {
				return s.shutdown()
			}
			if !s.exec(ctx, line) {
				return s.shutdown()
			}
		}
	}
}

func (s *session) shutdown() error {
	if err := s.ch.Disconnect(); err != nil && !errors.Is(err, simlink.ErrShutdownTimeout) {
		return err
	}
	return nil
}

// printEvents prints status events until ctx is done, then flushes what is
// left in the queue.
func (s *session) printEvents(ctx context.Context) {
	defer close(s.done)
	q := s.ch.Events()
	for {
		ev, err := q.Next(ctx)
		if err != nil {
			s.p.printAll(q.Drain())
			return
		}
		s.p.event(ev)
	}
}

// readLines forwards input lines to out and closes it at end of input.
// The goroutine is abandoned if the session ends first.
func readLines(in io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		out <- sc.Text()
	}
}

// exec runs one command line. It returns false when the session should end.
func (s *session) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch name {
	case "quit", "exit":
		return false
	case "help", "?":
		s.p.printf("%s\n", attachHelp)
	case "connect":
		err = s.connect(ctx, args)
	case "disconnect":
		err = s.ch.Disconnect()
	case simlink.CommandStart:
		err = s.ch.Start()
	case simlink.CommandStop:
		err = s.ch.Stop()
	case simlink.CommandPause:
		err = s.ch.Pause()
	case simlink.CommandResume:
		err = s.ch.Resume()
	case "send":
		err = s.send(args)
	case "load":
		err = s.load(ctx, args)
	case "save":
		err = s.ch.SaveConfig(ctx, optionalArg(args), s.current)
	case "set":
		err = s.set(args)
	case "show":
		renderPayload(s.p, s.current, "current")
	case "send-config":
		err = s.ch.SendConfig(s.current)
	case "status":
		s.status()
	default:
		err = fmt.Errorf("unknown command %q (try help)", name)
	}
	if err != nil {
		s.log.Debug("attach command failed", ports.String("command", name), ports.Err(err))
		s.p.errorf("%v", err)
	}
	return true
}

func (s *session) connect(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.ch.Connect(ctx)
	}
	ep, err := simlink.ParseEndpoint(args[0])
	if err != nil {
		return err
	}
	return s.ch.ConnectTo(ctx, ep)
}

func (s *session) send(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: send <name> [key=value...]")
	}
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}
	return s.ch.SendCommand(args[0], params)
}

func (s *session) load(ctx context.Context, args []string) error {
	cfg, err := s.ch.LoadConfig(ctx, optionalArg(args))
	if err != nil {
		return err
	}
	s.current = cfg
	return nil
}

func (s *session) set(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: set key=value...")
	}
	params, err := parseParams(args)
	if err != nil {
		return err
	}
	next := s.current.Clone()
	for k, v := range params {
		next[k] = v
	}
	for _, problem := range next.Check() {
		s.p.printf("warning: %s\n", problem)
	}
	s.current = next
	return nil
}

func (s *session) status() {
	state := s.ch.State()
	if ep, ok := s.ch.Endpoint(); ok {
		s.p.printf("%s %s\n", state, ep)
	} else {
		s.p.printf("%s\n", state)
	}
	if dropped := s.ch.Events().Dropped(); dropped > 0 {
		s.p.printf("%d status events dropped\n", dropped)
	}
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
