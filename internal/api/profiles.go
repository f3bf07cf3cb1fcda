package api

import (
	"context"

	"github.com/NordCoder/Linkbio/internal/domain/profile"
)

type ProfilesAPI struct {
	c *Client
}

func (a *ProfilesAPI) Me(ctx context.Context) (*profile.Profile, error) {
	return a.one(ctx, get("/profiles/me"))
}

func (a *ProfilesAPI) Create(ctx context.Context, in profile.Update) (*profile.Profile, error) {
	return a.one(ctx, post("/profiles/me").with(in))
}

func (a *ProfilesAPI) UpdateMe(ctx context.Context, in profile.Update) (*profile.Profile, error) {
	return a.one(ctx, put("/profiles/me").with(in))
}

func (a *ProfilesAPI) DeleteMe(ctx context.Context) error {
	return a.c.do(ctx, del("/profiles/me"), nil)
}

func (a *ProfilesAPI) ByUserID(ctx context.Context, userID int64) (*profile.Profile, error) {
	return a.one(ctx, get("/profiles/"+itoa(userID)))
}

func (a *ProfilesAPI) one(ctx context.Context, r request) (*profile.Profile, error) {
	var p profile.Profile
	if err := a.c.do(ctx, r, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
