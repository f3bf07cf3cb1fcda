package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/NordCoder/Linkbio/internal/app"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

type env struct {
	app  *app.App
	out  io.Writer
	log  *zap.Logger
	json bool
}

type command struct {
	usage string
	// local commands need neither config nor a session.
	local bool
	run   func(ctx context.Context, e *env, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":               {usage: "login --email E [--password P]", run: cmdLogin},
		"logout":              {usage: "logout", run: cmdLogout},
		"status":              {usage: "status", run: cmdStatus},
		"me":                  {usage: "me [update --email --username --full-name --bio]", run: cmdMe},
		"register":            {usage: "register --email E --username U [--password P] [--full-name N] [--bio B]", run: cmdRegister},
		"check-email":         {usage: "check-email EMAIL", run: cmdCheckEmail},
		"check-username":      {usage: "check-username NAME", run: cmdCheckUsername},
		"verify-email":        {usage: "verify-email TOKEN", run: cmdVerifyEmail},
		"resend-verification": {usage: "resend-verification", run: cmdResendVerification},
		"forgot-password":     {usage: "forgot-password EMAIL", run: cmdForgotPassword},
		"reset-password":      {usage: "reset-password --token T [--password P]", run: cmdResetPassword},
		"links":               {usage: "links list|add|edit|rm|move|toggle|reorder|public|click", run: cmdLinks},
		"profile":             {usage: "profile show|create|update|delete|public|avatar", run: cmdProfile},
		"users":               {usage: "users list [--skip N --limit N] | get ID", run: cmdUsers},
		"dashboard":           {usage: "dashboard", run: cmdDashboard},
		"delete-account":      {usage: "delete-account --yes", run: cmdDeleteAccount},
		"health":              {usage: "health [--wait] [--attempts N]", run: cmdHealth},
		"version":             {usage: "version", local: true, run: cmdVersion},
	}
}

func lookup(name string) (command, bool) {
	c, ok := commands[name]
	return c, ok
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "linkctl [flags] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", commands[n].usage)
	}
	fmt.Fprintln(w, "\nflags:")
	fmt.Fprint(w, fs.FlagUsages())
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

// flags returns a flag set for a subcommand that reports usage errors
// instead of exiting.
func flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageErr("%s: %v", fs.Name(), err)
	}
	return nil
}

// optString returns a pointer to the flag value when it was given.
func optString(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetString(name)
	return &v
}

func optBool(fs *pflag.FlagSet, name string) *bool {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetBool(name)
	return &v
}

func optInt(fs *pflag.FlagSet, name string) *int {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetInt(name)
	return &v
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErr("bad id %q", s)
	}
	return id, nil
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}
