package api

import (
	"context"

	"github.com/NordCoder/Linkbio/internal/domain/link"
)

type LinksAPI struct {
	c *Client
}

func (a *LinksAPI) List(ctx context.Context) ([]link.Link, error) {
	var out []link.Link
	if err := a.c.do(ctx, get("/links/"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *LinksAPI) Get(ctx context.Context, id int64) (*link.Link, error) {
	var l link.Link
	if err := a.c.do(ctx, get("/links/"+itoa(id)), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (a *LinksAPI) Create(ctx context.Context, in link.Create) (*link.Link, error) {
	var l link.Link
	if err := a.c.do(ctx, post("/links/").with(in), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (a *LinksAPI) Update(ctx context.Context, id int64, in link.Update) (*link.Link, error) {
	var l link.Link
	if err := a.c.do(ctx, put("/links/"+itoa(id)).with(in), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (a *LinksAPI) Delete(ctx context.Context, id int64) error {
	return a.c.do(ctx, del("/links/"+itoa(id)), nil)
}

// Reorder returns the caller's links in their new order.
func (a *LinksAPI) Reorder(ctx context.Context, moves []link.Reorder) ([]link.Link, error) {
	if moves == nil {
		moves = []link.Reorder{}
	}
	var out []link.Link
	if err := a.c.do(ctx, post("/links/reorder").with(moves), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *LinksAPI) Click(ctx context.Context, id int64) (*link.Link, error) {
	var l link.Link
	if err := a.c.do(ctx, post("/links/"+itoa(id)+"/click"), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (a *LinksAPI) ByUsername(ctx context.Context, username string) ([]link.Link, error) {
	var out []link.Link
	if err := a.c.do(ctx, get("/links/user/"+seg(username)), &out); err != nil {
		return nil, err
	}
	return out, nil
}
