package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/config"
	"github.com/iliyamo/notes-api/internal/database"
	"github.com/iliyamo/notes-api/internal/handler"
	"github.com/iliyamo/notes-api/internal/logging"
	"github.com/iliyamo/notes-api/internal/mailer"
	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/queue"
	"github.com/iliyamo/notes-api/internal/repository"
	"github.com/iliyamo/notes-api/internal/router"
	"github.com/iliyamo/notes-api/internal/service"
	"github.com/iliyamo/notes-api/internal/utils"
)

const appName = "Notes API"

type app struct {
	cfg config.Config
	log *logrus.Logger
}

// bootstrap loads the optional dotenv file, the configuration and the logger.
func bootstrap(envFile string) (*app, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: logging.New(cfg.LogLevel, cfg.LogFormat)}, nil
}

// redis returns a connected client or an error when the server is unreachable.
func (a *app) redis() (*redis.Client, error) {
	rdb := config.NewRedisClient(a.cfg.Redis)
	if rdb == nil {
		return nil, fmt.Errorf("redis at %s is unreachable", a.cfg.Redis.Addr)
	}
	return rdb, nil
}

// buildDispatcher wires the configured mail provider behind a circuit breaker.
func (a *app) buildDispatcher() (*mailer.Dispatcher, error) {
	sender, err := mailer.NewSender(a.cfg.Mail, a.log)
	if err != nil {
		return nil, err
	}
	return mailer.NewDispatcher(appName, mailer.NewBreakerSender("mail-"+a.cfg.Mail.Provider, sender), a.log), nil
}

// publisher is what the server needs from a mail queue driver.
type publisher interface {
	service.MailPublisher
	Close() error
}

// buildPublisher picks the mail queue driver.  The memory driver also starts
// the in-process workers.
func (a *app) buildPublisher(rdb *redis.Client) (publisher, error) {
	switch a.cfg.Queue.Driver {
	case "rabbitmq":
		return queue.NewRabbitPublisher(a.cfg.Queue.RabbitURL, a.cfg.Queue.Name, a.log), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("queue driver redis: redis at %s is unreachable", a.cfg.Redis.Addr)
		}
		return queue.NewRedisQueue(rdb, a.cfg.Queue.Name, a.log), nil
	case "memory", "":
		d, err := a.buildDispatcher()
		if err != nil {
			return nil, err
		}
		q := queue.NewMemoryQueue(a.cfg.Queue.Buffer, a.log)
		q.Start(a.cfg.Queue.Workers, d.Handle)
		return q, nil
	}
	return nil, fmt.Errorf("unknown queue driver %q", a.cfg.Queue.Driver)
}

// buildServer opens the database, wires repositories, services, handlers
// and routes.  cleanup releases everything buildServer opened.
func (a *app) buildServer(ctx context.Context, migrate bool) (*echo.Echo, func(), error) {
	db, err := database.Open(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	// a nil *redis.Client must stay a nil interface for the middleware
	rdb := config.NewRedisClient(a.cfg.Redis)
	var (
		scripter redis.Scripter
		cmdable  redis.Cmdable
	)
	if rdb != nil {
		scripter, cmdable = rdb, rdb
	} else {
		a.log.WithField("addr", a.cfg.Redis.Addr).Warn("redis unavailable: rate limiting and response cache disabled")
	}

	mail, err := a.buildPublisher(rdb)
	if err != nil {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	cleanup := func() {
		if err := mail.Close(); err != nil {
			a.log.WithError(err).Warn("close mail queue")
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	books := repository.NewBookRepo(db)
	notes := repository.NewNoteRepo(db)
	tokens := utils.NewTokenService(a.cfg.JWTSecret, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	hasher := utils.NewHasher(a.cfg.BcryptCost)
	own := service.Ownership{AdminRole: a.cfg.AdminRoleName}

	authSvc := service.NewAuthService(users, tokens, hasher, mail, service.AuthConfig{
		AdminRole:            a.cfg.AdminRoleName,
		EmailConfirmationURL: a.cfg.EmailConfirmationURL,
		PasswordRecoveryURL:  a.cfg.PasswordRecoveryURL,
		ReclaimDeleted:       a.cfg.ReclaimDeletedAccounts,
	}, a.log)
	roleCache := middleware.NewResponseCache(a.cfg.Cache, cmdable)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(a.log))

	g := router.Guards{
		Auth:      middleware.Authenticate(tokens, users),
		Refresh:   middleware.RefreshAuthenticate(tokens),
		AdminRole: a.cfg.AdminRoleName,
		RateLimit: middleware.NewTokenBucket(a.cfg.RateLimit, scripter),
		RoleCache: roleCache.Middleware(),
	}
	router.RegisterRoutes(e, handler.Health(db))
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), g)
	router.RegisterUsers(e, handler.NewUserHandler(service.NewUserService(users, roles, own, a.log)), g)
	router.RegisterRoles(e, handler.NewRoleHandler(service.NewRoleService(roles, a.log), roleCache), g)
	router.RegisterBooks(e, handler.NewBookHandler(service.NewBookService(books, users, own, a.log)), g)
	router.RegisterNotes(e, handler.NewNoteHandler(service.NewNoteService(notes, books, own, a.log)), g)
	router.RegisterMailer(e, handler.NewMailerHandler(mail, a.cfg.PublicURL), g)

	return e, cleanup, nil
}
