package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	clierrors "github.com/jrsteele09/go-albis-sdk/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appName = "albisctl"

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		log.Err(err).Msg("albisctl failed")
	}
	os.Exit(clierrors.ExitCode(err))
}

func run(args []string, stdout, stderr io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger()

	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
