package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/RyanBlaney/sonido-timemap/analysis"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

const (
	exitOK                = 0
	exitFailure           = 1
	exitInputNotFound     = 2
	exitMissingCapability = 3
	exitDecodeFailure     = 4
	exitAnalysisFailure   = 5
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			printDiagnostic(stderr, err)
		}
		return exitCode(err)
	}
	return exitOK
}

func printDiagnostic(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	var missing *transcode.MissingCapabilityError
	if errors.As(err, &missing) {
		fmt.Fprintf(w, "hint: %s\n", missing.Guidance())
	}
}

func exitCode(err error) int {
	var (
		notFound     *transcode.InputNotFoundError
		missing      *transcode.MissingCapabilityError
		decode       *transcode.DecodeError
		insufficient *analysis.InsufficientAudioError
		outOfRange   *analysis.OutOfRangeFrameError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &notFound):
		return exitInputNotFound
	case errors.As(err, &missing):
		return exitMissingCapability
	case errors.As(err, &decode):
		return exitDecodeFailure
	case errors.As(err, &insufficient), errors.As(err, &outOfRange):
		return exitAnalysisFailure
	default:
		return exitFailure
	}
}
