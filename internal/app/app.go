// internal/app/app.go
//
// Application assembly.
//
// Context
// -------
// New turns one validated *config.Config into a running object graph:
//
//  1. Content catalogue (embedded, or `content.file`).
//  2. Form definitions, CSRF key, and the GeoLite2 reader.
//  3. Optional MySQL pool and the inquiry repository.
//  4. Mail queue, webhook client, and the per-form Sender.
//  5. Visitor store (lazy visitors, idle and LRU eviction).
//  6. Theme, view engine, alias table, and the chi router.
//
// Close tears the graph down in reverse: visitors first so no late send
// lands, then the mail queue drains, then the pool and the Geo reader.
//
// Notes
// -----
// • Relative file paths in config are resolved against cfg.Paths.Root.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/agencysite/internal/component"
	"github.com/yanizio/agencysite/internal/config"
	"github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/database"
	"github.com/yanizio/agencysite/internal/form"
	"github.com/yanizio/agencysite/internal/inquiry"
	"github.com/yanizio/agencysite/internal/message"
	"github.com/yanizio/agencysite/internal/requestinfo"
	"github.com/yanizio/agencysite/internal/routing"
	"github.com/yanizio/agencysite/internal/session"
	"github.com/yanizio/agencysite/internal/theme"
	"github.com/yanizio/agencysite/internal/view"
	"github.com/yanizio/agencysite/web"

	// Components and modules register themselves at init.
	_ "github.com/yanizio/agencysite/components/contact"
	_ "github.com/yanizio/agencysite/components/pages"
	_ "github.com/yanizio/agencysite/components/services"
	_ "github.com/yanizio/agencysite/modules/debug"
	_ "github.com/yanizio/agencysite/modules/health"
)

// App is the assembled site.
type App struct {
	Config  *config.Config
	Env     *component.Env
	Handler http.Handler
	Queue   *message.Queue

	closers []func(context.Context) error
}

// New wires every subsystem described by cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (_ *App, err error) {
	if log == nil {
		log = zap.S()
	}
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	//
	// ── 1.  Content ─────────────────────────────────────────────────────
	//
	catalog, err := content.Load(resolve(cfg, cfg.Content.File))
	if err != nil {
		return nil, err
	}

	//
	// ── 2.  Forms, CSRF, Geo ────────────────────────────────────────────
	//
	form.SetKey(cfg.Security.CSRFKey, cfg.Security.MaxFormAge)
	if err := form.RegisterDefaults(catalog); err != nil {
		return nil, fmt.Errorf("app: forms: %w", err)
	}
	if err := requestinfo.InitGeo(resolve(cfg, cfg.Geo.DBPath)); err != nil {
		return nil, fmt.Errorf("app: geo: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return requestinfo.CloseGeo() })

	//
	// ── 3.  Database (optional) ─────────────────────────────────────────
	//
	env := &component.Env{
		Config:  cfg,
		Catalog: catalog,
		Guard: form.Guard{
			MinFill: cfg.Security.MinFillTime,
			MaxAge:  cfg.Security.MaxFormAge,
		},
		Log: log,
	}
	if cfg.Database.Enabled {
		opts := database.DefaultOptions()
		opts.Password = cfg.Database.Password
		opts.MaxOpenConns = cfg.Database.MaxOpen
		opts.MaxIdleConns = cfg.Database.MaxIdle
		db, err := database.OpenWithOptions(ctx, cfg.Database.DSN, opts)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		env.DB = db
		env.Inquiries = inquiry.NewRepository(db)
	}

	//
	// ── 4.  Delivery ────────────────────────────────────────────────────
	//
	sender, err := a.buildSender(cfg, env, log)
	if err != nil {
		return nil, err
	}

	//
	// ── 5.  Visitors ────────────────────────────────────────────────────
	//
	store := session.NewStore(session.Options{
		IdleTTL:       cfg.Session.IdleTTL,
		MaxEntries:    cfg.Session.MaxVisitors,
		EvictInterval: cfg.Session.EvictInterval,
		Catalog:       catalog,
		Forms: form.NewControllerFactory(form.FactoryOptions{
			Sender:       func(*form.FormDef) contact.Sender { return sender },
			DismissAfter: cfg.Contact.DismissAfter,
			Log:          log,
		}),
		Log: log,
	})
	a.closers = append(a.closers, func(context.Context) error { store.Close(); return nil })
	env.Visitors = store

	//
	// ── 6.  Theme, views, router ────────────────────────────────────────
	//
	mgr := theme.Manager{FS: web.FS, BaseDir: web.ThemesDir}
	th, err := mgr.Load(cfg.Theme, view.Funcs())
	if err != nil {
		return nil, err
	}
	env.Views = view.New(th, view.DefaultCapacity)

	aliases, err := routing.NewAliasTable(cfg.Routes.Aliases)
	if err != nil {
		return nil, fmt.Errorf("app: routes: %w", err)
	}

	h, err := Router(env, RouterOptions{Aliases: aliases})
	if err != nil {
		return nil, err
	}
	a.Env = env
	a.Handler = h

	log.Infow("site assembled",
		"theme", th.Name,
		"forms", form.IDs(),
		"components", component.AllNames(),
		"aliases", aliases.Len(),
	)
	return a, nil
}

// buildSender returns the Sender shared by every form.
func (a *App) buildSender(cfg *config.Config, env *component.Env, log *zap.SugaredLogger) (contact.Sender, error) {
	var base contact.Sender
	switch cfg.Contact.Mode {
	case "actions":
		var transport message.Transport = message.LogTransport{Log: log}
		if cfg.Mail.Transport == "smtp" {
			transport = message.SMTPTransport{
				Addr:     cfg.Mail.SMTPAddr,
				Username: cfg.Mail.Username,
				Password: cfg.Mail.Password,
				From:     cfg.Mail.From,
			}
		}
		q := message.NewQueue(transport, cfg.Mail.QueueSize, cfg.Mail.Workers, log)
		a.Queue = q
		a.closers = append(a.closers, q.Close)

		as := &form.ActionSender{
			Mail: q,
			Webhook: message.NewWebhookClient(message.WebhookOptions{
				Timeout:  cfg.Webhook.Timeout,
				RetryMax: cfg.Webhook.RetryMax,
				Secret:   cfg.Webhook.Secret,
				Log:      log,
			}),
			WebhookURL: cfg.Webhook.URL,
			MailTo:     cfg.Mail.To,
			Log:        log,
		}
		if env.Inquiries != nil {
			as.Store = env.Inquiries
		}
		base = as
	default:
		base = contact.Simulated{Delay: cfg.Contact.SendDelay}
	}
	return withTimeout(base, cfg.Contact.SendTimeout), nil
}

// withTimeout bounds every send by d.
func withTimeout(s contact.Sender, d time.Duration) contact.Sender {
	if d <= 0 {
		return s
	}
	return contact.SenderFunc(func(ctx context.Context, sub contact.Submission) (contact.Ack, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return s.Send(ctx, sub)
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Migrate applies every component's DDL to the configured database.
func Migrate(ctx context.Context, cfg *config.Config) (int, error) {
	if !cfg.Database.Enabled {
		return 0, errors.New("app: database.enabled is false")
	}
	opts := database.DefaultOptions()
	opts.Password = cfg.Database.Password
	db, err := database.OpenWithOptions(ctx, cfg.Database.DSN, opts)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	stmts := component.Migrations()
	if err := database.Migrate(ctx, db, stmts); err != nil {
		return 0, err
	}
	return len(stmts), nil
}

func resolve(cfg *config.Config, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Paths.Root, p)
}
