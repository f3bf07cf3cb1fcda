package main

import (
	"context"
	"net/http"
	"time"

	config "github.com/NordCoder/Linkbio/internal/config/mockapi"
	"github.com/NordCoder/Linkbio/internal/mockapi"
	"go.uber.org/zap"
)

func buildHTTPServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*http.Server, error) {
	opts := mockapi.Options{
		Auth: mockapi.Config{
			Secret:      []byte(cfg.Auth.JWTSecret),
			AccessTTL:   cfg.Auth.AccessTTL,
			RefreshTTL:  cfg.Auth.RefreshTTL,
			BcryptCost:  cfg.Auth.BcryptCost,
			FrontendURL: cfg.Server.FrontendURL,
		},
		Cookie: mockapi.CookieOptions{
			Name:   cfg.Auth.CookieName,
			Domain: cfg.Auth.CookieDomain,
			Path:   cfg.Auth.CookiePath,
			Secure: cfg.Auth.CookieSecure,
		},
		Logger: logger,
	}
	if cfg.SMTP.Addr != "" {
		opts.Mailer = mockapi.NewSMTPMailer(cfg.SMTP, logger)
		logger.Info("smtp enabled", zap.String("addr", cfg.SMTP.Addr))
	}
	srv := mockapi.New(opts)

	if cfg.Seed != "" {
		seed, err := config.LoadSeed(cfg.Seed)
		if err != nil {
			return nil, err
		}
		if err := srv.Seed(ctx, *seed); err != nil {
			return nil, err
		}
		logger.Info("seeded", zap.String("file", cfg.Seed), zap.Int("users", len(seed.Users)))
	}

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
