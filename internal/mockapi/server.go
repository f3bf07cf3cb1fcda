package mockapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	domainauth "github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/link"
	"github.com/NordCoder/Linkbio/internal/domain/profile"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/obs"
	"github.com/NordCoder/Linkbio/internal/repository/memory"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CookieOptions struct {
	Name   string
	Domain string
	Path   string
	Secure bool
}

type Options struct {
	Auth   Config
	Cookie CookieOptions
	// Mailer receives a copy of every mail after the in-memory mailbox.
	Mailer Mailer
	Logger *zap.Logger
}

// Server is an in-memory rendition of the link-in-bio REST API.
type Server struct {
	uc       *Usecase
	users    user.Repo
	links    link.Repo
	profiles profile.Repo
	rt       domainauth.RefreshTokenRepo
	mailbox  *Mailbox
	cookie   CookieOptions
	ttl      time.Duration
	log      *zap.Logger
	handler  http.Handler

	refreshCalls  atomic.Int64
	refreshDelay  atomic.Int64
	refreshStatus atomic.Int32
	logoutStatus  atomic.Int32
}

func New(o Options) *Server {
	if o.Cookie.Name == "" {
		o.Cookie.Name = "refresh_token"
	}
	if o.Cookie.Path == "" {
		o.Cookie.Path = "/auth"
	}
	o.Auth.defaults()

	db := memory.NewDB(o.Auth.Now)
	s := &Server{
		users:    memory.NewUserRepo(db),
		links:    memory.NewLinkRepo(db),
		profiles: memory.NewProfileRepo(db),
		rt:       memory.NewRefreshTokenRepo(db),
		mailbox:  NewMailbox(o.Mailer),
		cookie:   o.Cookie,
		ttl:      o.Auth.RefreshTTL,
		log:      obs.OrNop(o.Logger).With(zap.String("component", "mockapi")),
	}
	s.uc = NewUseCase(s.users, s.profiles, s.rt, memory.NewTicketRepo(db), s.mailbox, o.Auth)
	s.handler = obs.HTTPHandler(s.routes(), "mockapi")
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Mailbox() *Mailbox { return s.mailbox }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		s.recoverer,
		requestID,
		s.observe,
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/refresh", s.refresh)
		r.Post("/logout", s.logout)
		r.Get("/validate/email/{email}", s.validateEmail)
		r.Get("/validate/username/{username}", s.validateUsername)
		r.Get("/verify-email", s.verifyEmail)
		r.Post("/forgot-password", s.forgotPassword)
		r.Post("/reset-password", s.resetPassword)
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/me", s.me)
			r.Post("/resend-verification", s.resendVerification)
		})
	})

	r.Route("/links", func(r chi.Router) {
		r.Post("/{id}/click", s.clickLink)
		r.Get("/user/{username}", s.userLinks)
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/", s.listLinks)
			r.Post("/", s.createLink)
			r.Post("/reorder", s.reorderLinks)
			r.Get("/{id}", s.getLink)
			r.Put("/{id}", s.updateLink)
			r.Delete("/{id}", s.deleteLink)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/username/{username}", s.publicProfile)
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/", s.listUsers)
			r.Put("/me", s.updateMe)
			r.Delete("/me", s.deleteMe)
			r.Patch("/me/avatar", s.setAvatar)
			r.Post("/me/avatar/upload", s.uploadAvatar)
			r.Delete("/me/avatar", s.removeAvatar)
			r.Get("/{id}", s.getUser)
		})
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/me", s.myProfile)
		r.Post("/me", s.createProfile)
		r.Put("/me", s.updateProfile)
		r.Delete("/me", s.deleteProfile)
		r.Get("/{user_id}", s.profileByUser)
	})
	return r
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, raw string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    raw,
		Path:     s.cookie.Path,
		Domain:   s.cookie.Domain,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    "",
		Path:     s.cookie.Path,
		Domain:   s.cookie.Domain,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *Server) refreshCookie(r *http.Request) string {
	c, err := r.Cookie(s.cookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

// sleep waits d or until the request goes away.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
