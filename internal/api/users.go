package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"

	"github.com/NordCoder/Linkbio/internal/domain/user"
)

type UsersAPI struct {
	c *Client
}

func (a *UsersAPI) List(ctx context.Context, skip, limit int) ([]user.User, error) {
	r := get("/users/")
	r.query = url.Values{"skip": {strconv.Itoa(skip)}, "limit": {strconv.Itoa(limit)}}
	var out []user.User
	if err := a.c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *UsersAPI) Get(ctx context.Context, id int64) (*user.WithProfile, error) {
	var u user.WithProfile
	if err := a.c.do(ctx, get("/users/"+itoa(id)), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ByUsername returns the public page. A private page answers ErrForbidden.
func (a *UsersAPI) ByUsername(ctx context.Context, username string) (*user.PublicProfile, error) {
	var p user.PublicProfile
	if err := a.c.do(ctx, get("/users/username/"+seg(username)), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *UsersAPI) UpdateMe(ctx context.Context, in user.Update) (*user.User, error) {
	return a.me(ctx, put("/users/me").with(in))
}

func (a *UsersAPI) SetAvatar(ctx context.Context, avatarURL string) (*user.User, error) {
	return a.me(ctx, patch("/users/me/avatar").with(map[string]string{"avatar_url": avatarURL}))
}

func (a *UsersAPI) RemoveAvatar(ctx context.Context) (*user.User, error) {
	return a.me(ctx, del("/users/me/avatar"))
}

// UploadAvatar sends the image as the multipart field "file".
func (a *UsersAPI) UploadAvatar(ctx context.Context, filename string, img io.Reader) (*user.User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("avatar form: %w", err)
	}
	if _, err := io.Copy(fw, img); err != nil {
		return nil, fmt.Errorf("avatar read: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("avatar form: %w", err)
	}
	r := post("/users/me/avatar/upload")
	r.body = buf.Bytes()
	r.ctype = mw.FormDataContentType()
	return a.me(ctx, r)
}

func (a *UsersAPI) DeleteMe(ctx context.Context) error {
	return a.c.do(ctx, del("/users/me"), nil)
}

func (a *UsersAPI) me(ctx context.Context, r request) (*user.User, error) {
	var u user.User
	if err := a.c.do(ctx, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
