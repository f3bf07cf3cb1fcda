package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NordCoder/Linkbio/internal/app"
	config "github.com/NordCoder/Linkbio/internal/config/linkctl"
	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/NordCoder/Linkbio/internal/session"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var version = "dev"

const msgSessionExpired = "session expired, please log in"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("linkctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	cfgPath := fs.StringP("config", "c", os.Getenv("LINKCTL_CONFIG"), "config file")
	fs.String("base-url", "", "API base URL")
	fs.Duration("timeout", 0, "HTTP timeout")
	fs.String("cookies", "", "cookie file")
	fs.String("log", "", "log level")
	verbose := fs.BoolP("verbose", "v", false, "debug logging")
	asJSON := fs.Bool("json", false, "print JSON")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}
	name, cmdArgs := rest[0], rest[1:]
	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	if cmd.local {
		if err := cmd.run(ctx, &env{out: stdout, json: *asJSON}, cmdArgs); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load(*cfgPath, fs)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	cfg.App.Version = version
	if *verbose && !fs.Changed("log") {
		cfg.Log.Level = "debug"
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	otelShutdown, err := initOTel(ctx, cfg, logger)
	if err != nil {
		logger.Error("otel init", zap.Error(err))
		return 1
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = otelShutdown(shCtx)
	}()

	a, err := app.New(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	// Every run restores the session from the stored refresh cookie.
	if err := a.Session.Initialize(ctx); err != nil {
		logger.Debug("no session", zap.Error(err))
	}

	e := &env{app: a, out: stdout, log: logger, json: *asJSON}
	if err := cmd.run(ctx, e, cmdArgs); err != nil {
		report(stderr, err)
		return 1
	}
	return 0
}

func report(w io.Writer, err error) {
	if session.IsSessionEnd(err) || errors.Is(err, errs.ErrSessionExpired) {
		fmt.Fprintln(w, msgSessionExpired)
		return
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintln(w, "usage:", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
		return
	}
	fmt.Fprintln(w, "error:", errs.Message(err))
	for _, f := range errs.Fields(err) {
		if f.Field == "" {
			fmt.Fprintf(w, "  %s\n", f.Message)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
	}
}
