package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/NordCoder/Linkbio/internal/domain/profile"
	"github.com/NordCoder/Linkbio/internal/domain/user"
)

func cmdProfile(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usageErr("profile show|create|update|delete|public|avatar")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "show":
		p, err := e.app.Profiles.MyProfile(ctx)
		if err != nil {
			return err
		}
		return e.printProfile(p)
	case "create", "update":
		in, err := profileFlags(sub, rest)
		if err != nil {
			return err
		}
		var p *profile.Profile
		if sub == "create" {
			p, err = e.app.Profiles.CreateProfile(ctx, in)
		} else {
			p, err = e.app.Profiles.UpdateProfile(ctx, in)
		}
		if err != nil {
			return err
		}
		return e.printProfile(p)
	case "delete":
		if err := e.app.Profiles.DeleteProfile(ctx); err != nil {
			return err
		}
		e.printf("profile deleted\n")
		return nil
	case "public":
		return profilePublic(ctx, e, rest)
	case "avatar":
		return profileAvatar(ctx, e, rest)
	default:
		return usageErr("unknown profile command %q", sub)
	}
}

func profileFlags(sub string, args []string) (profile.Update, error) {
	fs := flags("profile " + sub)
	fs.String("page-title", "", "")
	fs.String("theme", "", "")
	fs.String("background", "", "#RRGGBB")
	fs.String("text-color", "", "#RRGGBB")
	fs.String("button-style", "", "")
	fs.String("meta", "", "meta description")
	fs.String("domain", "", "custom domain")
	fs.Bool("public", true, "")
	if err := parse(fs, args); err != nil {
		return profile.Update{}, err
	}
	return profile.Update{
		PageTitle:       optString(fs, "page-title"),
		Theme:           optString(fs, "theme"),
		BackgroundColor: optString(fs, "background"),
		TextColor:       optString(fs, "text-color"),
		ButtonStyle:     optString(fs, "button-style"),
		MetaDescription: optString(fs, "meta"),
		CustomDomain:    optString(fs, "domain"),
		IsPublic:        optBool(fs, "public"),
	}, nil
}

func profilePublic(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usageErr("profile public USERNAME")
	}
	page, err := e.app.Profiles.PublicPage(ctx, args[0])
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(map[string]any{
			"profile": page.Profile,
			"meta":    map[string]string{"title": page.Meta.Title, "description": page.Meta.Description, "image": page.Meta.Image},
		})
	}
	e.printf("%s\n", page.Meta.Title)
	if page.Meta.Description != "" {
		e.printf("%s\n", page.Meta.Description)
	}
	if page.Meta.Image != "" {
		e.printf("avatar: %s\n", page.Meta.Image)
	}
	e.printf("\n")
	return e.printLinks(append(page.Buttons, page.Links...))
}

func profileAvatar(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usageErr("profile avatar set URL | upload FILE | rm")
	}
	var (
		u   *user.User
		err error
	)
	switch args[0] {
	case "set":
		if len(args) != 2 {
			return usageErr("profile avatar set URL")
		}
		u, err = e.app.Profiles.SetAvatar(ctx, args[1])
	case "upload":
		if len(args) != 2 {
			return usageErr("profile avatar upload FILE")
		}
		f, ferr := os.Open(args[1])
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		u, err = e.app.Profiles.UploadAvatar(ctx, filepath.Base(args[1]), f)
	case "rm", "remove":
		u, err = e.app.Profiles.RemoveAvatar(ctx)
	default:
		return usageErr("profile avatar set URL | upload FILE | rm")
	}
	if err != nil {
		return err
	}
	return e.printUser(u)
}

func cmdUsers(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usageErr("users list | get ID")
	}
	switch args[0] {
	case "list":
		fs := flags("users list")
		skip := fs.Int("skip", 0, "")
		limit := fs.Int("limit", 100, "")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		us, err := e.app.Profiles.Users(ctx, *skip, *limit)
		if err != nil {
			return err
		}
		if e.json {
			return e.printJSON(us)
		}
		for _, u := range us {
			e.printf("%d\t%s\t%s\n", u.ID, u.Username, u.Email)
		}
		return nil
	case "get":
		if len(args) != 2 {
			return usageErr("users get ID")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		u, err := e.app.Profiles.User(ctx, id)
		if err != nil {
			return err
		}
		if e.json {
			return e.printJSON(u)
		}
		if err := e.printUser(&u.User); err != nil {
			return err
		}
		if u.Profile != nil {
			return e.printProfile(u.Profile)
		}
		return nil
	default:
		return usageErr("users list | get ID")
	}
}

func cmdDashboard(ctx context.Context, e *env, _ []string) error {
	d, err := e.app.Profiles.Dashboard(ctx, e.app.Account, e.app.Links)
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(d)
	}
	if err := e.printUser(d.User); err != nil {
		return err
	}
	if d.Profile != nil {
		e.printf("\n")
		if err := e.printProfile(d.Profile); err != nil {
			return err
		}
	}
	e.printf("\n")
	return e.printLinks(d.Links)
}

func (e *env) printProfile(p *profile.Profile) error {
	if e.json {
		return e.printJSON(p)
	}
	e.printf("page title: %s\n", p.PageTitle)
	e.printf("theme:      %s (%s on %s, %s buttons)\n", p.Theme, p.TextColor, p.BackgroundColor, p.ButtonStyle)
	e.printf("public:     %t\n", p.IsPublic)
	if p.MetaDescription != "" {
		e.printf("meta:       %s\n", p.MetaDescription)
	}
	if p.CustomDomain != "" {
		e.printf("domain:     %s\n", p.CustomDomain)
	}
	return nil
}

