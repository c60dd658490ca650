package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailyquest-service/internal/app"
	"dailyquest-service/internal/auth"
	"dailyquest-service/internal/config"
	"dailyquest-service/internal/infra/memory"
	"dailyquest-service/internal/infra/postgres"
	redisinfra "dailyquest-service/internal/infra/redis"
	"dailyquest-service/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const defaultUserTTL = 30 * time.Second

// repositories is what a backing store must provide; both memory.Store and
// postgres.Store satisfy it.
type repositories interface {
	app.QuestionRepository
	app.AnswerRepository
	app.UserRepository
	app.GroupRepository
	app.FriendRepository
}

// runtime holds the wired services for one command invocation.
type runtime struct {
	cfg       config.Config
	log       *logger.Logger
	questions *app.QuestionService
	answers   *app.AnswerService
	groups    *app.GroupService
	friends   *app.FriendService
	auth      *app.AuthService
	home      *app.HomeService
	closers   []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.log.Sync()
}

// loadRuntime reads config and wires stores and services. Postgres and Redis are
// used when configured; otherwise everything stays in process.
func loadRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newRuntime(ctx, cfg)
}

// errNoDatabase rejects operator writes that an in-process store would discard on exit.
var errNoDatabase = errors.New("postgres.url (or POSTGRES_URL) is required for this command")

// loadPersistentRuntime is loadRuntime for commands whose effect must outlive the process.
func loadPersistentRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.URL == "" {
		return nil, errNoDatabase
	}
	return newRuntime(ctx, cfg)
}

func newRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	log, err := logger.New(logger.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log}
	if err := rt.wire(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) wire(ctx context.Context) error {
	cfg := rt.cfg
	calendar, err := cfg.Calendar()
	if err != nil {
		return fmt.Errorf("period config: %w", err)
	}

	var store repositories
	if cfg.Postgres.URL != "" {
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		store = postgres.NewStore(pool)
		rt.log.Info("using postgres store")
	} else {
		store = memory.NewStore()
		rt.log.Warn("postgres not configured, using in-memory store")
	}

	var (
		board app.Leaderboard = memory.NewLeaderboard()
		bus   app.MessageBus  = memory.NewHub()
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("connect redis: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		board = redisinfra.NewLeaderboard(client, "")
		bus = redisinfra.NewMessageBus(client, cfg.Redis.Channel)
		rt.log.Info("using redis leaderboard and message bus", "addr", cfg.Redis.Addr)
	}

	users := memory.NewUserCache(store, config.TTLDuration(cfg.Cache.UserTTL, defaultUserTTL))
	answers := users.WrapAnswers(store)

	var tokens app.TokenIssuer
	if cfg.Auth.Secret != "" {
		issuer, err := auth.NewJWTIssuer(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, auth.DefaultTokenTTL))
		if err != nil {
			return err
		}
		tokens = issuer
	}

	rt.questions = app.NewQuestionService(store, users, calendar, rt.log.With("component", "selector"))
	rt.groups = app.NewGroupService(store, users, bus, rt.log.With("component", "groups"))
	rt.answers = app.NewAnswerService(app.AnswerDeps{
		Selector:    rt.questions,
		Questions:   store,
		Answers:     answers,
		Users:       store,
		Messenger:   rt.groups,
		Leaderboard: board,
		Log:         rt.log.With("component", "recorder"),
	})
	rt.friends = app.NewFriendService(store, users, answers, rt.log.With("component", "friends"))
	rt.auth = app.NewAuthService(users, tokens, auth.BcryptHasher{Cost: bcrypt.DefaultCost}, rt.log.With("component", "auth"))
	rt.home = app.NewHomeService(rt.questions, rt.answers, rt.groups)
	return nil
}
