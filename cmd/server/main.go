// Command server runs the mail-merge HTTP API: account management, stored
// SMTP senders and the bulk campaign engine, backed by a single JSON data
// file.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mergepost/mergepost/modules/campaign"
	"github.com/mergepost/mergepost/modules/senders"
	"github.com/mergepost/mergepost/modules/users"
	"github.com/mergepost/mergepost/pkg/config"
	"github.com/mergepost/mergepost/pkg/httpserver"
	"github.com/mergepost/mergepost/pkg/jwt"
	"github.com/mergepost/mergepost/pkg/logger"
	"github.com/mergepost/mergepost/pkg/mailer"
	"github.com/mergepost/mergepost/pkg/merge"
	"github.com/mergepost/mergepost/pkg/rbac"
	"github.com/mergepost/mergepost/store"
)

type appConfig struct {
	DataFile     string `env:"DATA_FILE" envDefault:"data/data.json"`
	JWTSecret    string `env:"JWT_SECRET,required"`
	SeedEmail    string `env:"SUPERADMIN_EMAIL"`
	SeedPassword string `env:"SUPERADMIN_PASSWORD"`
	SeedName     string `env:"SUPERADMIN_NAME"`
}

func main() {
	var (
		appCfg    appConfig
		logCfg    logger.Config
		serverCfg httpserver.Config
		usersCfg  users.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&serverCfg)
	config.MustLoad(&usersCfg)

	log := logger.New(logCfg, logger.WithAttrs(slog.String("app", "mergepost")))

	if err := run(context.Background(), appCfg, serverCfg, usersCfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, serverCfg httpserver.Config, usersCfg users.Config, log *slog.Logger) error {
	storage, err := store.Open(cfg.DataFile)
	if err != nil {
		return err
	}

	tokens, err := jwt.New(cfg.JWTSecret)
	if err != nil {
		return err
	}
	authz := rbac.MustNewAuthorizer(rbac.DefaultRoles())

	userSvc := users.New(usersCfg, storage, tokens, authz,
		users.WithLogger(log))
	if err := userSvc.SeedSuperadmin(ctx, cfg.SeedEmail, cfg.SeedPassword, cfg.SeedName); err != nil {
		return err
	}

	transports := func(sender mailer.SenderConfig) mailer.Transport {
		return mailer.NewTransport(sender)
	}
	engine := merge.New(transports, merge.WithLogger(log))

	senderSvc := senders.New(storage, transports, authz, senders.WithLogger(log))
	campaignSvc := campaign.New(storage, engine, authz, campaign.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.Healthcheck())
	r.Mount("/auth", userSvc.Handle())

	authenticated := users.Middleware(tokens)
	r.Route("/senders", func(r chi.Router) {
		r.Use(authenticated)
		r.Mount("/", senderSvc.Handle())
	})
	r.Route("/campaigns", func(r chi.Router) {
		r.Use(authenticated)
		r.Mount("/", campaignSvc.Handle())
	})

	server := httpserver.New(serverCfg, httpserver.WithLogger(log))
	return server.Run(ctx, r)
}
