// Command sparkmon queries the monitoring REST API of a Spark cluster
// and prints the result as JSON
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gwos/sparkmon/config"
	sparkerr "github.com/gwos/sparkmon/errors"
	"github.com/gwos/sparkmon/logzer"
	"github.com/gwos/sparkmon/spark"
)

const (
	exitOK = iota
	exitErr
	exitUsage
)

var errUsage = errors.New("usage error")

// newClient is replaced in tests
var newClient = func() (spark.Client, error) {
	cfg := config.GetConfig()
	initOTEL(cfg)
	return cfg.NewClient()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	shutdownOTEL()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("sparkmon", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		params      []string
		jsonPath    string
		where       string
		showVersion bool
	)
	flags.StringArrayVarP(&params, "param", "p", nil, "query param as key=value, repeatable")
	flags.StringVar(&jsonPath, "jsonpath", "", `select from result, for example "$[*].id"`)
	flags.StringVar(&where, "where", "", `keep list items matching expression, for example 'status == "RUNNING"'`)
	flags.BoolVar(&showVersion, "version", false, "print build info")
	config.BindFlags(flags)
	flags.Usage = func() { usage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		flags.Usage()
		return exitUsage
	}
	config.AllowFlags = false

	if showVersion {
		_ = render(stdout, config.GetBuildInfo(), "", "")
		return exitOK
	}

	err := execute(ctx, flags.Args(), params, stdout, where, jsonPath)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		flags.Usage()
		return exitUsage
	default:
		fmt.Fprintln(stderr, err)
		if recs := logzer.LastErrors(); len(recs) > 0 {
			log.Debug().Interface("lastErrors", recs).Msg("recent errors")
		}
		return exitErr
	}
}

func execute(ctx context.Context, args, pairs []string, w io.Writer, where, jsonPath string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, ok := lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	if len(args)-1 != len(cmd.args) {
		return fmt.Errorf("%w: %s", errUsage, cmd.synopsis())
	}
	p, err := parseParams(pairs)
	if err != nil {
		return fmt.Errorf("%w: %w", sparkerr.ErrParams, err)
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	log.Debug().
		Str("command", cmd.name).
		Strs("args", args[1:]).
		Interface("params", p).
		Str("endpoint", client.Endpoint()).
		Msg("query")

	result, err := cmd.run(ctx, client, args[1:], p)
	if err != nil {
		return err
	}
	return render(w, result, where, jsonPath)
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: sparkmon [flags] <command> [args]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-42s %s\n", cmd.synopsis(), cmd.help)
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flags.FlagUsages())
}

var shutdownOTEL = func() {}

func initOTEL(cfg *config.Config) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	tp, err := cfg.InitTracerProvider()
	if err != nil {
		if !errors.Is(err, config.ErrTelemetryNotConfigured) {
			log.Warn().Err(err).Msg("could not init tracer provider")
		}
		return
	}
	otel.SetTracerProvider(tp)
	shutdownOTEL = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("could not shutdown tracer provider")
		}
	}
}
