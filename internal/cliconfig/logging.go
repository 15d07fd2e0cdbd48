package cliconfig

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	logAdapter "github.com/helios-robotics/simlink/internal/adapters/log"
)

// Logger builds the CLI logger writing to out. The "auto" format writes
// human-readable lines to a terminal and JSON lines otherwise.
func Logger(cfg Config, out io.Writer) (*logAdapter.ZerologAdapter, error) {
	level, err := logAdapter.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	console := false
	switch cfg.LogFormat {
	case LogFormatConsole:
		console = true
	case LogFormatJSON:
		console = false
	default:
		console = IsTerminal(out)
	}
	return logAdapter.NewZerolog(out, level, console), nil
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// UseColor reports whether status output to w should be colorized.
func UseColor(cfg Config, w io.Writer) bool {
	return !cfg.NoColor && IsTerminal(w)
}
