package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/NordCoder/Linkbio/internal/domain/link"
)

func cmdLinks(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usageErr("links list|add|edit|rm|move|toggle|reorder|public|click")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list", "ls":
		return linksList(ctx, e, rest)
	case "add":
		return linksAdd(ctx, e, rest)
	case "edit":
		return linksEdit(ctx, e, rest)
	case "rm", "delete":
		return linksRemove(ctx, e, rest)
	case "move":
		return linksMove(ctx, e, rest)
	case "toggle":
		return linksToggle(ctx, e, rest)
	case "reorder":
		return linksReorder(ctx, e, rest)
	case "public":
		return linksPublic(ctx, e, rest)
	case "click":
		return linksClick(ctx, e, rest)
	default:
		return usageErr("unknown links command %q", sub)
	}
}

func linksList(ctx context.Context, e *env, args []string) error {
	fs := flags("links list")
	active := fs.Bool("active", false, "active links only")
	buttons := fs.Bool("buttons", false, "buttons only")
	plain := fs.Bool("plain", false, "plain links only")
	if err := parse(fs, args); err != nil {
		return err
	}
	var (
		ls  []link.Link
		err error
	)
	switch {
	case *active:
		ls, err = e.app.Links.Active(ctx)
	case *buttons:
		ls, err = e.app.Links.Buttons(ctx)
	case *plain:
		ls, err = e.app.Links.Plain(ctx)
	default:
		ls, err = e.app.Links.Sorted(ctx)
	}
	if err != nil {
		return err
	}
	return e.printLinks(ls)
}

func linksAdd(ctx context.Context, e *env, args []string) error {
	fs := flags("links add")
	title := fs.String("title", "", "")
	url := fs.String("url", "", "")
	typ := fs.String("type", "", "link or button")
	platform := fs.String("platform", "", "social platform")
	desc := fs.String("description", "", "")
	thumb := fs.String("thumbnail", "", "")
	fs.Int("position", 0, "")
	inactive := fs.Bool("inactive", false, "create hidden")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *title == "" || *url == "" {
		return usageErr("links add --title T --url U")
	}
	in := link.Create{
		LinkType:       link.Type(*typ),
		SocialPlatform: link.Platform(*platform),
		Title:          *title,
		URL:            *url,
		Description:    *desc,
		ThumbnailURL:   *thumb,
		Position:       optInt(fs, "position"),
	}
	if *inactive {
		f := false
		in.IsActive = &f
	}
	l, err := e.app.Links.Create(ctx, in)
	if err != nil {
		return err
	}
	return e.printLink(l)
}

func linksEdit(ctx context.Context, e *env, args []string) error {
	fs := flags("links edit")
	fs.String("title", "", "")
	fs.String("url", "", "")
	fs.String("type", "", "")
	fs.String("platform", "", "")
	fs.String("description", "", "")
	fs.String("thumbnail", "", "")
	fs.Int("position", 0, "")
	fs.Bool("active", true, "")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErr("links edit ID [--title ...]")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	in := link.Update{
		Title:        optString(fs, "title"),
		URL:          optString(fs, "url"),
		Description:  optString(fs, "description"),
		ThumbnailURL: optString(fs, "thumbnail"),
		Position:     optInt(fs, "position"),
		IsActive:     optBool(fs, "active"),
	}
	if v := optString(fs, "type"); v != nil {
		t := link.Type(*v)
		in.LinkType = &t
	}
	if v := optString(fs, "platform"); v != nil {
		p := link.Platform(*v)
		in.SocialPlatform = &p
	}
	l, err := e.app.Links.Update(ctx, id, in)
	if err != nil {
		return err
	}
	return e.printLink(l)
}

func linksRemove(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usageErr("links rm ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := e.app.Links.Delete(ctx, id); err != nil {
		return err
	}
	e.printf("deleted link %d\n", id)
	return nil
}

func linksMove(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return usageErr("links move ID up|down")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var dir link.Direction
	switch args[1] {
	case "up":
		dir = link.Up
	case "down":
		dir = link.Down
	default:
		return usageErr("links move ID up|down")
	}
	moved, err := e.app.Links.Move(ctx, id, dir)
	if err != nil {
		return err
	}
	if !moved {
		e.printf("link %d not moved\n", id)
		return nil
	}
	ls, err := e.app.Links.Sorted(ctx)
	if err != nil {
		return err
	}
	return e.printLinks(ls)
}

func linksToggle(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usageErr("links toggle ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	l, err := e.app.Links.ToggleActive(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("link %d not found", id)
	}
	return e.printLink(l)
}

// linksReorder takes ID:POSITION pairs.
func linksReorder(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return usageErr("links reorder ID:POS...")
	}
	moves := make([]link.Reorder, 0, len(args))
	for _, a := range args {
		idStr, posStr, ok := strings.Cut(a, ":")
		if !ok {
			return usageErr("bad move %q, want ID:POS", a)
		}
		id, err := parseID(idStr)
		if err != nil {
			return err
		}
		pos, err := strconv.Atoi(posStr)
		if err != nil || pos < 0 {
			return usageErr("bad position in %q", a)
		}
		moves = append(moves, link.Reorder{LinkID: id, NewPosition: pos})
	}
	ls, err := e.app.Links.Reorder(ctx, moves)
	if err != nil {
		return err
	}
	return e.printLinks(link.Sorted(ls))
}

func linksPublic(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return usageErr("links public USERNAME")
	}
	buttons, plain, err := e.app.Links.PublicPage(ctx, args[0])
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(map[string][]link.Link{"buttons": buttons, "links": plain})
	}
	return e.printLinks(append(buttons, plain...))
}

func linksClick(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return usageErr("links click USERNAME ID")
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	l, err := e.app.Links.Click(ctx, args[0], id)
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(l)
	}
	e.printf("%s -> %s (%d clicks)\n", l.Title, l.URL, l.ClickCount)
	return nil
}

func (e *env) printLinks(ls []link.Link) error {
	if e.json {
		if ls == nil {
			ls = []link.Link{}
		}
		return e.printJSON(ls)
	}
	if len(ls) == 0 {
		e.printf("no links\n")
		return nil
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPOS\tTYPE\tACTIVE\tCLICKS\tTITLE\tURL")
	for _, l := range ls {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%t\t%d\t%s\t%s\n", l.ID, l.Position, l.LinkType, l.IsActive, l.ClickCount, l.Title, l.URL)
	}
	return tw.Flush()
}

func (e *env) printLink(l *link.Link) error {
	return e.printLinks([]link.Link{*l})
}
