package main

import (
	"context"
	"os"
	"time"

	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/obs/retry"
	"github.com/common-nighthawk/go-figure"
	"go.uber.org/zap"
)

const passwordEnv = "LINKCTL_PASSWORD"

func password(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(passwordEnv)
}

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := flags("login")
	email := fs.String("email", "", "account email")
	pass := fs.String("password", "", "password (or $"+passwordEnv+")")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" || password(*pass) == "" {
		return usageErr("login --email E --password P")
	}
	u, err := e.app.Session.Login(ctx, auth.Credentials{Email: *email, Password: password(*pass)})
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(u)
	}
	e.printf("logged in as %s (%s)\n", u.Username, u.Email)
	return nil
}

func cmdLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Session.Logout(ctx); err != nil {
		e.log.Warn("server logout failed", zap.Error(err))
	}
	e.printf("logged out\n")
	return nil
}

func cmdStatus(_ context.Context, e *env, _ []string) error {
	st := e.app.Session.Status()
	if e.json {
		return e.printJSON(map[string]any{
			"state":       st.State.String(),
			"initialized": st.Initialized,
			"expiry":      st.Expiry,
		})
	}
	e.printf("state: %s\n", st.State)
	if !st.Expiry.IsZero() {
		e.printf("access token expires: %s (in %s)\n", st.Expiry.Format(time.RFC3339), time.Until(st.Expiry).Round(time.Second))
	}
	return nil
}

func cmdMe(ctx context.Context, e *env, args []string) error {
	if len(args) > 0 && args[0] == "update" {
		return cmdMeUpdate(ctx, e, args[1:])
	}
	u, err := e.app.Account.Current(ctx)
	if err != nil {
		return err
	}
	return e.printUser(u)
}

func cmdMeUpdate(ctx context.Context, e *env, args []string) error {
	fs := flags("me update")
	fs.String("email", "", "")
	fs.String("username", "", "")
	fs.String("full-name", "", "")
	fs.String("bio", "", "")
	if err := parse(fs, args); err != nil {
		return err
	}
	in := user.Update{
		Email:    optString(fs, "email"),
		Username: optString(fs, "username"),
		FullName: optString(fs, "full-name"),
		Bio:      optString(fs, "bio"),
	}
	u, err := e.app.Profiles.UpdateMe(ctx, in)
	if err != nil {
		return err
	}
	return e.printUser(u)
}

func (e *env) printUser(u *user.User) error {
	if e.json {
		return e.printJSON(u)
	}
	e.printf("id:       %d\n", u.ID)
	e.printf("username: %s\n", u.Username)
	e.printf("email:    %s (verified: %t)\n", u.Email, u.IsVerified)
	if u.FullName != "" {
		e.printf("name:     %s\n", u.FullName)
	}
	if u.Bio != "" {
		e.printf("bio:      %s\n", u.Bio)
	}
	if u.AvatarURL != "" {
		e.printf("avatar:   %s\n", u.AvatarURL)
	}
	return nil
}

func cmdRegister(ctx context.Context, e *env, args []string) error {
	fs := flags("register")
	email := fs.String("email", "", "")
	username := fs.String("username", "", "")
	pass := fs.String("password", "", "password (or $"+passwordEnv+")")
	fullName := fs.String("full-name", "", "")
	bio := fs.String("bio", "", "")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *username == "" || password(*pass) == "" {
		return usageErr("register --email E --username U --password P")
	}
	u, err := e.app.Account.Register(ctx, auth.Registration{
		Email: *email, Username: *username, Password: password(*pass),
		FullName: *fullName, Bio: *bio,
	})
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(u)
	}
	e.printf("registered %s, please log in\n", u.Username)
	return nil
}

func cmdCheckEmail(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usageErr("check-email EMAIL")
	}
	v, err := e.app.Account.CheckEmail(ctx, args[0])
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(v)
	}
	e.printf("%s: %s\n", v.Email, v.Message)
	return nil
}

func cmdCheckUsername(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usageErr("check-username NAME")
	}
	v, err := e.app.Account.CheckUsername(ctx, args[0])
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(v)
	}
	e.printf("%s: %s\n", v.Username, v.Message)
	return nil
}

func cmdVerifyEmail(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usageErr("verify-email TOKEN")
	}
	m, err := e.app.Account.VerifyEmail(ctx, args[0])
	if err != nil {
		return err
	}
	return e.printMessage(m)
}

func cmdResendVerification(ctx context.Context, e *env, _ []string) error {
	m, err := e.app.Account.ResendVerification(ctx)
	if err != nil {
		return err
	}
	return e.printMessage(m)
}

func cmdForgotPassword(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usageErr("forgot-password EMAIL")
	}
	m, err := e.app.Account.ForgotPassword(ctx, args[0])
	if err != nil {
		return err
	}
	return e.printMessage(m)
}

func cmdResetPassword(ctx context.Context, e *env, args []string) error {
	fs := flags("reset-password")
	token := fs.String("token", "", "")
	pass := fs.String("password", "", "new password (or $"+passwordEnv+")")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *token == "" || password(*pass) == "" {
		return usageErr("reset-password --token T --password P")
	}
	m, err := e.app.Account.ResetPassword(ctx, *token, password(*pass))
	if err != nil {
		return err
	}
	return e.printMessage(m)
}

func cmdDeleteAccount(ctx context.Context, e *env, args []string) error {
	fs := flags("delete-account")
	yes := fs.Bool("yes", false, "confirm")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*yes {
		return usageErr("delete-account --yes")
	}
	if err := e.app.Account.DeleteAccount(ctx); err != nil {
		return err
	}
	e.printf("account deleted\n")
	return nil
}

func cmdHealth(ctx context.Context, e *env, args []string) error {
	fs := flags("health")
	wait := fs.Bool("wait", false, "retry until the API answers")
	attempts := fs.Int("attempts", 8, "attempts with --wait")
	if err := parse(fs, args); err != nil {
		return err
	}
	var status string
	check := func(ctx context.Context) error {
		s, err := e.app.API.Health(ctx)
		status = s
		return err
	}
	var err error
	if *wait {
		err = retry.Do(ctx, check, retry.HealthPolicy(e.log, *attempts))
	} else {
		err = check(ctx)
	}
	if err != nil {
		return err
	}
	e.printf("%s %s\n", e.app.API.BaseURL(), status)
	return nil
}

func cmdVersion(_ context.Context, e *env, _ []string) error {
	if e.json {
		return e.printJSON(map[string]string{"version": version})
	}
	e.printf("%s\nversion %s\n", figure.NewFigure("linkctl", "cybermedium", true).String(), version)
	return nil
}

func (e *env) printMessage(m *auth.Message) error {
	if e.json {
		return e.printJSON(m)
	}
	e.printf("%s\n", m.Message)
	return nil
}
