package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/config"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/accountmem"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/auth/accesstoken"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/auth/rbac"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/db"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/logging"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/policyopa"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/infra/ratelimit"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg    config.Config
	store  *db.Store
	r      *gin.Engine
	logger *slog.Logger

	gate       *usecase.Gate
	identities domain.IdentityStore

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool

	initErr error
}

// NewServer wires collaborators from configuration. Wiring failures are
// reported by Run so the caller keeps a single error path.
func NewServer(ctx context.Context, cfg config.Config, store *db.Store, logger *slog.Logger) *Server {
	s := newServer(cfg, store, logger)
	s.initDeps(ctx)
	s.routes()
	return s
}

type ServerDeps struct {
	Verifier    domain.CredentialVerifier
	Identities  domain.IdentityStore
	Policy      domain.StatusPolicy
	RateLimiter domain.RateLimiter
	Logger      *slog.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	s := newServer(cfg, nil, deps.Logger)
	s.identities = deps.Identities
	s.gate = s.newGate(deps.Verifier, deps.Identities, deps.Policy)
	s.initRateLimit(context.Background(), deps.RateLimiter)
	s.routes()
	return s
}

func newServer(cfg config.Config, store *db.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	s := &Server{cfg: cfg, store: store, r: r, logger: logging.Module(logger, "http", "transport")}
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())
	return s
}

func (s *Server) initDeps(ctx context.Context) {
	verifier, err := accesstoken.NewVerifier(s.cfg)
	if err != nil {
		s.initErr = fmt.Errorf("access token verifier: %w", err)
		return
	}

	var identities domain.IdentityStore
	if s.store.Available() {
		identities = db.NewAccountRepository(s.store.DB)
	} else {
		mem := accountmem.New()
		if err := mem.Seed(s.cfg.SeedAccounts); err != nil {
			s.initErr = err
			return
		}
		identities = mem
	}

	var policy domain.StatusPolicy = domain.BannedOnlyPolicy{}
	if s.cfg.StatusPolicyPath != "" {
		opaPolicy, err := policyopa.NewStatusPolicyFromPath(ctx, s.cfg.StatusPolicyPath)
		if err != nil {
			s.initErr = fmt.Errorf("status policy: %w", err)
			return
		}
		s.logger.Info("status policy loaded",
			slog.String("event", "policy.loaded"),
			slog.String("path", s.cfg.StatusPolicyPath),
			slog.String("revision", opaPolicy.Revision()),
		)
		policy = opaPolicy
	}

	s.identities = identities
	s.gate = s.newGate(verifier, identities, policy)
	s.initRateLimit(ctx, nil)
}

func (s *Server) newGate(verifier domain.CredentialVerifier, identities domain.IdentityStore, policy domain.StatusPolicy) *usecase.Gate {
	return &usecase.Gate{
		Verifier:   verifier,
		Identities: identities,
		Authorizer: rbac.NewAuthorizer(),
		Policy:     policy,
		Logger:     logging.Module(s.logger, "gate", "usecase"),
	}
}

func (s *Server) initRateLimit(ctx context.Context, override domain.RateLimiter) {
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
	if override != nil {
		s.rateLimiter = override
		return
	}
	if s.rateLimitRequests <= 0 {
		return
	}
	if s.cfg.RedisAddr != "" {
		limiter, err := ratelimit.NewRedisLimiter(ctx, ratelimit.RedisLimiterConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		})
		if err == nil {
			s.rateLimiter = limiter
			return
		}
		s.logger.Warn("redis rate limiter unavailable; using in-process limiter",
			slog.String("event", "ratelimit.fallback"),
			slog.String("error", err.Error()),
		)
	}
	s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{MaxKeys: s.cfg.RateLimitMaxKeys})
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealth)

	v1 := s.r.Group("/v1", s.rateLimit())
	{
		v1.GET("/me", s.authorize(domain.RoleUser, domain.RoleAdmin), s.handleMe)
		v1.GET("/admin/accounts/:id", s.authorize(domain.RoleAdmin), s.handleAdminGetAccount)
	}

	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) Handler() http.Handler {
	return s.r
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	if s.initErr != nil {
		return s.initErr
	}
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("event", "http.listen"), slog.String("addr", s.cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	s.logger.Info("http server shutting down", slog.String("event", "http.shutdown"))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
