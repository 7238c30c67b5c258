// cmd/web/main.go
//
// Profile form service – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Install a console bootstrap logger so config errors are visible.
//
//  2. Load config (.env → conf/global.yaml → PROFILEFORM_ env, Vault refs
//     resolved).
//
//  3. Start the daily rotating file logger (tees to console in a TTY).
//
//  4. Configure the CSRF key, the form definition, and the validator.
//
//  5. Open the optional GeoLite2 database, the submission notification
//     queue, and the draft session cache.
//
//  6. Build the chi router:
//
//     • middleware  – request id, access log, panic recovery, security
//     headers, request info
//     • /healthz    – liveness probe
//     • /metrics    – Prometheus
//     • /profile/*  – profile form component
//
//  7. Wrap with ForceHTTPS, serve, and shut down gracefully on SIGINT or
//     SIGTERM.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/profileform/components/profileform"
	"github.com/yanizio/profileform/internal/component"
	"github.com/yanizio/profileform/internal/config"
	"github.com/yanizio/profileform/internal/draft"
	"github.com/yanizio/profileform/internal/form"
	"github.com/yanizio/profileform/internal/logger"
	"github.com/yanizio/profileform/internal/message"
	"github.com/yanizio/profileform/internal/middleware"
	"github.com/yanizio/profileform/internal/requestinfo"
	"github.com/yanizio/profileform/internal/server"
	"github.com/yanizio/profileform/internal/session"
)

const shutdownGrace = 10 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	boot, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(boot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zap.S().Errorw("profileform exited", "err", err)
		_ = zap.S().Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Config and logger ───────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 2.  CSRF, form definition, validator ────────────────────────────
	//
	if err := configureCSRF(cfg.CSRF, log); err != nil {
		return err
	}

	def := form.Default()
	if cfg.Form.Definition != "" {
		if def, err = form.RegisterFile(cfg.Form.Definition); err != nil {
			return fmt.Errorf("form definition: %w", err)
		}
		log.Infow("form definition loaded", "file", cfg.Form.Definition, "id", def.ID)
	}
	val := form.NewValidator(def, form.Options{RequireAge: cfg.Form.RequireAge})

	//
	// ── 3.  Request info and draft sessions ─────────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.GeoIP.DB); err != nil {
		log.Warnw("geoip disabled", "err", err)
	}
	defer func() { _ = requestinfo.CloseGeo() }()

	pubs := []message.Publisher{message.LogPublisher{Log: log}}
	if cfg.Notify.WebhookURL != "" {
		pubs = append(pubs, message.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Retries, cfg.Notify.Timeout, log))
	}
	notify := message.NewQueue(cfg.Notify.QueueSize, cfg.Notify.Timeout*time.Duration(cfg.Notify.Retries+1), log, pubs...)
	defer notify.Close()

	drafts := draft.New(cfg.Session.IdleTTL, cfg.Session.MaxEntries, cfg.Session.EvictInterval, log)
	component.Register(profileform.New(profileform.Deps{
		Drafts:    drafts,
		Cookies:   session.Cookies{Name: cfg.Session.CookieName, MaxAge: cfg.Session.IdleTTL},
		Validator: val,
		ThemeDir:  filepath.Join(cfg.Paths.Root, "themes"),
		Notify:    notify,
		Log:       log,
	}))
	defer func() {
		if err := component.CloseAll(); err != nil {
			log.Warnw("component close failed", "err", err)
		}
	}()

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		middleware.AccessLog(log),
		chimw.Recoverer,
		middleware.Security,
		requestinfo.Enrich,
	)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+profileform.Name, http.StatusFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	component.Mount(r)

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r), server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})
	return server.Run(ctx, srv, shutdownGrace, log)
}

// configureCSRF installs the configured key, or a random per-process key when
// none is set.  Tokens signed with a random key die with the process.
func configureCSRF(c config.CSRF, log *zap.SugaredLogger) error {
	key, err := c.KeyBytes()
	if err != nil {
		return err
	}
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("csrf key: %w", err)
		}
		log.Warnw("csrf.key not set, using a random per-process key")
	}
	if err := form.Configure(key, c.MaxAge); err != nil {
		return fmt.Errorf("csrf key: %w", err)
	}
	return nil
}
