package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/akarshrajput/evidark-v2-sub001/internal/auth"
	"github.com/akarshrajput/evidark-v2-sub001/internal/config"
	"github.com/akarshrajput/evidark-v2-sub001/internal/core"
	"github.com/akarshrajput/evidark-v2-sub001/internal/store"
	"github.com/akarshrajput/evidark-v2-sub001/internal/store/sqlite"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport/ws"
)

// UserAgent identifies the client on the websocket upgrade request.
const UserAgent = "evidark-chat/1"

// App wires together local storage, the session layer and its transport.
type App struct {
	cfg      config.Config
	storage  store.LocalStorage
	provider *core.Provider
	log      *zerolog.Logger
}

// Option configures an App.
type Option func(*options)

type options struct {
	dialer  transport.Dialer
	storage store.LocalStorage
}

// WithDialer replaces the websocket dialer.
func WithDialer(d transport.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithStorage replaces the SQLite storage opened from cfg.StoragePath.
func WithStorage(s store.LocalStorage) Option {
	return func(o *options) { o.storage = s }
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	socketURL, err := cfg.SocketURL()
	if err != nil {
		return nil, fmt.Errorf("socket url: %w", err)
	}

	if o.storage == nil {
		st, err := sqlite.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		logger.Debug().Str("storage_path", cfg.StoragePath).Msg("storage initialized")
		o.storage = st
	}

	if o.dialer == nil {
		o.dialer = ws.NewDialer(logger,
			ws.WithMaxMessageBytes(cfg.MaxMessageBytes),
			ws.WithHeader("User-Agent", UserAgent),
		)
	}

	return &App{
		cfg:      cfg,
		storage:  o.storage,
		provider: core.NewProvider(o.dialer, socketURL, logger),
		log:      logger,
	}, nil
}

// Storage returns the local storage.
func (a *App) Storage() store.LocalStorage { return a.storage }

// Provider returns the session layer.
func (a *App) Provider() *core.Provider { return a.provider }

// Connect reads the stored token and connects the session layer with it.
// The token is read and checked on every call, so an expired or replaced
// token is noticed before dialing. The handshake is bounded by the
// configured timeout.
func (a *App) Connect(ctx context.Context) (core.Session, error) {
	s, err := auth.SessionFromStorage(ctx, a.storage)
	if err != nil {
		return core.Session{}, err
	}

	if a.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.HandshakeTimeout)
		defer cancel()
	}
	if err := a.provider.SetSession(ctx, &s); err != nil {
		return s, err
	}
	return s, nil
}

// Close disconnects and releases storage.
func (a *App) Close() error {
	a.provider.Close()
	if err := a.storage.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close storage")
		return err
	}
	return nil
}
