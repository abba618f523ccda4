package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/config"
	"corkboard-cli/internal/identity"
	"corkboard-cli/internal/invite"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/perm"
	"corkboard-cli/internal/store"
	"corkboard-cli/internal/store/cache"
	"corkboard-cli/internal/store/remote"
	"corkboard-cli/internal/store/sqlstore"
)

// backend is everything a command needs to talk to boards.
type backend struct {
	store   store.Store
	boards  *board.Service
	invites *invite.Service
	ident   identity.FileProvider
	logger  *log.Logger
	closers []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

func (b *backend) me() (model.Identity, error) {
	who, err := b.ident.Current()
	if errors.Is(err, identity.ErrSignedOut) {
		return who, errSignedOut
	}
	return who, err
}

func identityProvider() (identity.FileProvider, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return identity.FileProvider{}, err
	}
	return identity.NewFileProvider(dir), nil
}

func openBackend(ctx context.Context, app *App) (*backend, error) {
	ident, err := identityProvider()
	if err != nil {
		return nil, err
	}
	s, closers, err := openStore(ctx, app.cfg, app.logger, true)
	if err != nil {
		return nil, err
	}
	return &backend{
		store:   s,
		boards:  board.NewService(s, app.logger),
		invites: invite.New(s, ident, app.logger),
		ident:   ident,
		logger:  app.logger,
		closers: closers,
	}, nil
}

// openStore opens the configured backend. With a redis_url set (and
// withCache), reads are cached in Redis.
func openStore(ctx context.Context, cfg config.Config, logger *log.Logger, withCache bool) (store.Store, []func() error, error) {
	var (
		base    store.Store
		closers []func() error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Store.Driver)) {
	case "", config.DriverSQLite:
		path, err := cfg.SQLitePath()
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		db, err := sqlstore.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		base, closers = db, append(closers, db.Close)
	case config.DriverPostgres:
		if cfg.Store.DSN == "" {
			return nil, nil, errors.New("store.dsn is required for postgres")
		}
		db, err := sqlstore.OpenPostgres(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		base, closers = db, append(closers, db.Close)
	case config.DriverRemote:
		if cfg.Store.ServerURL == "" {
			return nil, nil, errors.New("store.server_url is required for remote")
		}
		c, err := remote.New(cfg.Store.ServerURL, cfg.Store.Token)
		if err != nil {
			return nil, nil, err
		}
		base = c
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if !withCache || cfg.Cache.RedisURL == "" {
		return base, closers, nil
	}
	opts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, nil, fmt.Errorf("cache.redis_url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable; reads go straight to the store")
	}
	closers = append(closers, client.Close)
	return cache.New(base, client, cfg.Cache.TTL), closers, nil
}

// load reads a board the signed-in user owns or belongs to.
func (b *backend) load(ctx context.Context, boardID string) (*board.State, error) {
	if err := b.require(ctx, boardID, perm.Member); err != nil {
		return nil, err
	}
	return b.boards.Load(ctx, boardID)
}

func (b *backend) require(ctx context.Context, boardID string, need perm.Access) error {
	me, err := b.me()
	if err != nil {
		return err
	}
	if need == perm.Owner {
		if err := perm.RequireOwner(ctx, b.store, boardID, me.UserID); err != nil {
			if errors.Is(err, perm.ErrNotOwner) {
				return errOwnerOnly(me.UserID, boardID)
			}
			return err
		}
		return nil
	}
	return perm.RequireMember(ctx, b.store, boardID, me.UserID)
}

// stateForList loads the board that owns listID.
func (b *backend) stateForList(ctx context.Context, listID string) (*board.State, error) {
	l, err := store.ListByID(ctx, b.store, listID)
	if err != nil {
		return nil, err
	}
	return b.load(ctx, l.BoardID)
}

// stateForCard loads the board that owns cardID.
func (b *backend) stateForCard(ctx context.Context, cardID string) (*board.State, error) {
	c, err := store.CardByID(ctx, b.store, cardID)
	if err != nil {
		return nil, err
	}
	return b.stateForList(ctx, c.ListID)
}
