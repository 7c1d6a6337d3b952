package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/varsilias/researchpaper/internal/api"
	"github.com/varsilias/researchpaper/internal/chat"
	"github.com/varsilias/researchpaper/internal/config"
	"github.com/varsilias/researchpaper/internal/kv"
	"github.com/varsilias/researchpaper/internal/middleware"
	"github.com/varsilias/researchpaper/internal/models"
	"github.com/varsilias/researchpaper/internal/relay"
	"github.com/varsilias/researchpaper/internal/session"
	"github.com/varsilias/researchpaper/internal/ui"
	"github.com/varsilias/researchpaper/internal/upstream"
)

const echoLatency = 30 * time.Millisecond

// newUpstream prefers the hosted API and falls back to the echo client when
// no credential is configured.
func newUpstream(cfg *config.Config, log *slog.Logger) (upstream.Client, bool) {
	if cfg.Upstream.APIKey == "" {
		return upstream.NewEchoClient(cfg.Upstream.Model, echoLatency), false
	}
	return upstream.NewHTTPClient(upstream.Options{
		BaseURL:  cfg.Upstream.BaseURL,
		APIKey:   cfg.Upstream.APIKey,
		SiteURL:  cfg.Upstream.SiteURL,
		SiteName: cfg.Upstream.SiteName,
		Timeout:  cfg.Upstream.Timeout,
	}, log), true
}

// openHistory opens the configured backend and loads the saved chats. The
// caller closes the returned kv.Store.
func openHistory(ctx context.Context, cfg *config.Config, log *slog.Logger) (*session.Store, kv.Store, error) {
	backend, err := kv.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	store := session.NewStore(log, backend, cfg.Store.Key)
	if err := store.Load(ctx); err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return store, backend, nil
}

// app is the assembled HTTP service.
type app struct {
	handler http.Handler
	backend kv.Store
	live    bool
}

func (a *app) Close() error { return a.backend.Close() }

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	history, backend, err := openHistory(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client, live := newUpstream(cfg, log)
	if live {
		log.Info("relaying to hosted API", "base_url", cfg.Upstream.BaseURL, "model", cfg.Upstream.Model)
	} else {
		log.Warn("no API key configured; falling back to echo replies", "model", cfg.Upstream.Model)
	}

	svc := relay.NewService(log, client, cfg.Upstream.Model, cfg.SystemPrompt)
	var modelsMgr models.Manager = models.NewStaticManager(cfg.Upstream.Model)
	if live {
		modelsMgr = models.NewUpstreamManager(client)
	}
	chatCtrl := chat.NewController(log, svc, chat.NewDrafts(), history)

	uih, err := ui.New(log, chatCtrl, history)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	h := api.NewHandlers(log, modelsMgr, history)
	h.Admin = api.NewAdmin(log, svc)

	mux := chi.NewRouter()
	ui.RegisterRoutes(mux, uih)
	api.RegisterRoutes(mux, h)
	relay.RegisterRoutes(mux, relay.NewHandler(log, svc))

	var handler http.Handler = mux
	handler = middleware.Recoverer(log)(handler)
	handler = middleware.AccessLog(log)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.VersionHeader(log)(handler)

	return &app{handler: handler, backend: backend, live: live}, nil
}
