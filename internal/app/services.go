package app

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stockportal/internal/api"
	"stockportal/internal/auth"
	"stockportal/internal/config"
	"stockportal/internal/routes"
	"stockportal/internal/session"
	"stockportal/internal/tokenstore"
	"stockportal/internal/transport"
	"stockportal/pkg/logging"
)

// Services holds the wired components for one run.
type Services struct {
	// Store holds the credential pair and persists it to the backend.
	Store *tokenstore.Store

	// Session is the observable logged-in flag.
	Session *session.State

	// Client is the portal client whose protected calls go through the
	// authenticated pipeline.
	Client *api.Client

	// Coordinator performs credential renewal for the pipeline.
	Coordinator *transport.RefreshCoordinator

	// Router evaluates route guards against Session.
	Router *routes.Router

	// Auth runs login, logout and registration.
	Auth *auth.Service

	closers []func() error
}

// InitializeServices builds all components from cfg.
func InitializeServices(cfg config.Config) (*Services, error) {
	s := &Services{}

	backend, err := s.newBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}
	s.Store = tokenstore.New(backend)
	s.Session = session.New(s.Store)

	raw, err := api.New(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout))
	if err != nil {
		s.Close()
		return nil, err
	}

	coordinatorOpts := []transport.CoordinatorOption{
		transport.WithRenewalTimeout(cfg.API.RenewalTimeout),
		transport.WithFailureListener(s.Session.Expire),
	}
	if len(cfg.API.ExemptPaths) > 0 {
		coordinatorOpts = append(coordinatorOpts, transport.WithExemptPaths(cfg.API.ExemptPaths...))
	}
	s.Coordinator = transport.NewRefreshCoordinator(s.Store, raw, coordinatorOpts...)

	pipeline := transport.NewPipeline(nil,
		transport.WithRequestStages(transport.RequestID, transport.Authorizer(s.Store)),
		transport.WithResponseStages(s.Coordinator.HandleResponse),
	)
	s.Client = raw.Authenticated(pipeline)

	s.Router = routes.NewRouter(s.Session)
	s.closers = append(s.closers, func() error {
		s.Router.Close()
		return nil
	})

	s.Auth = auth.NewService(s.Client, s.Store, s.Session, s.Router)

	logging.Debug("Bootstrap", "Services initialized (api=%s, storage=%s)", s.Client.BaseURL(), cfg.Storage.Backend)
	return s, nil
}

func (s *Services) newBackend(cfg config.StorageConfig) (tokenstore.Backend, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return tokenstore.NewMemoryBackend(), nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, client.Close)
		return tokenstore.NewRedisBackend(client, cfg.Redis.KeyPrefix), nil
	case config.StorageFile, "":
		backend, err := tokenstore.NewFileBackend(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Close releases backend connections and stops the router's session
// subscription.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
