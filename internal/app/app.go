// Package app wires the storefront client together from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/middleware"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/fjod/go_cart/storefront/internal/toast"
	"github.com/fjod/go_cart/storefront/internal/wishlist"

	h "github.com/fjod/go_cart/storefront/internal/http"
)

type App struct {
	Config   *config.Config
	Log      logrus.FieldLogger
	Store    store.Store
	Session  *session.Manager
	API      *api.Client
	Cart     *cart.Manager
	Wishlist *wishlist.Manager
	Checkout *checkout.Service
	Toasts   *toast.Board
	// Notify is nil when the notify transport is "none".
	Notify *notify.Channel
}

// New opens the configured store, restores persisted state and builds every
// component. Nothing talks to the remote services until a caller does.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	st, err := OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	return NewWithStore(ctx, cfg, st, log)
}

func NewWithStore(ctx context.Context, cfg *config.Config, st store.Store, log logrus.FieldLogger) (*App, error) {
	pricing, err := cfg.Pricing()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Log:    log,
		Store:  st,
		Toasts: toast.NewBoard(cfg.Notify.ToastLife, toast.CleanupInterval),
	}

	a.Session = session.NewManager(st, log)
	a.Session.Load(ctx)

	hooks := middleware.UnauthorizedHooks{
		OnCritical: func(req *http.Request) {
			// a rejected login attempt has no session to end
			if !a.Session.IsAuthenticated() {
				return
			}
			a.Session.ForceLogout("401 from " + req.URL.Path)
			a.Toasts.Push(toast.SeverityError, "Session ended", api.Message(http.StatusUnauthorized, ""))
		},
		OnNonCritical: func(req *http.Request) {
			a.Toasts.Push(toast.SeverityWarn, "Unauthorized", "Could not sync with the server. Your changes are kept locally.")
		},
	}
	a.API = api.New(api.Config{
		AuthURL:    cfg.API.AuthURL,
		ProductURL: cfg.API.ProductURL,
		OrderURL:   cfg.API.OrderURL,
		Timeout:    cfg.API.Timeout,
		Transport:  middleware.NewTransport(nil, a.Session, hooks, log),
	})

	a.Cart = cart.NewManager(st, a.API.Carts, log)
	a.Cart.Load(ctx)
	a.Cart.MirrorWhen(a.Session.IsAuthenticated)

	a.Wishlist = wishlist.NewManager(st, log)
	a.Wishlist.Load(ctx)

	// badge counts
	metrics.CartItems.Set(float64(a.Cart.ItemCount()))
	a.Cart.Subscribe(func(s cart.Snapshot) {
		metrics.CartItems.Set(float64(s.ItemCount))
	})
	metrics.WishlistItems.Set(float64(a.Wishlist.Count()))
	a.Wishlist.Subscribe(func(items []domain.WishlistItem) {
		metrics.WishlistItems.Set(float64(len(items)))
	})

	a.Checkout = checkout.NewService(a.Cart, a.API.Orders, pricing, log)

	// A fresh session adopts or seeds the server cart.
	a.Session.Subscribe(func(user *domain.User) {
		if user != nil {
			a.Cart.Reconcile(context.Background())
		}
	})

	if d := a.dialer(); d != nil {
		a.Notify = notify.NewChannel(d, cfg.Notify.RetryDelays, log)
		a.Notify.OnNotification(func(n domain.OrderNotification) {
			a.Toasts.Push(toast.SeverityInfo, "Order "+n.Status, n.Message)
		})
	}

	return a, nil
}

func (a *App) dialer() notify.Dialer {
	switch a.Config.Notify.Transport {
	case "hub":
		return &notify.HubDialer{URL: a.Config.Notify.HubURL, Token: a.Session.Token}
	case "kafka":
		return &notify.KafkaDialer{
			Brokers: a.Config.Notify.KafkaBrokers,
			Topic:   a.Config.Notify.KafkaTopic,
			GroupID: a.Config.Notify.KafkaGroup,
		}
	default:
		return nil
	}
}

// OpenStore connects the persisted local store selected by cfg.Backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig, log logrus.FieldLogger) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), nil

	case "sqlite":
		st, err := store.NewSQLiteStore(cfg.SQLitePath, cfg.Namespace)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("using sqlite store")
		return st, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.WithField("addr", cfg.RedisAddr).Info("using redis store")
		return store.NewRedisStore(client, cfg.Namespace, cfg.RedisTTL), nil

	case "mongo":
		db, err := store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		st := store.NewMongoStore(db, cfg.Namespace)
		if err := st.CreateIndexes(ctx); err != nil {
			st.Close()
			return nil, err
		}
		log.WithField("db", cfg.MongoDB).Info("using mongo store")
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Start adopts the server cart for an already signed-in session and attaches
// the notification channel to the session. Used by long-running commands.
// The guest cart push belongs to the login transition only.
func (a *App) Start(ctx context.Context) {
	if a.Session.IsAuthenticated() {
		if err := a.Cart.FetchFromBackend(ctx); err != nil {
			a.Log.WithError(err).Warn("keeping local cart, backend fetch failed")
		}
	}
	if a.Notify != nil {
		a.Notify.BindSession(a.Session)
	}
}

// Handler builds the local JSON facade.
func (a *App) Handler() http.Handler {
	timeout := a.Config.HTTP.RequestTimeout
	return h.NewRouter(h.Handlers{
		Session:       a.Session,
		Auth:          h.NewSessionHandler(a.Session, a.API.Auth, timeout),
		Cart:          h.NewCartHandler(a.Cart, a.Checkout, a.API.Products, timeout),
		Wishlist:      h.NewWishlistHandler(a.Wishlist, a.Cart, a.API.Products, timeout),
		Products:      h.NewProductHandler(a.API.Products, timeout),
		Orders:        h.NewOrdersHandler(a.API.Orders, timeout),
		Admin:         h.NewAdminHandler(a.API.Admin, a.API.Users, timeout),
		Notifications: h.NewNotificationsHandler(a.Toasts, a.Notify),
		Metrics:       metrics.Handler(),
	}, timeout, a.Log)
}

// Serve runs the facade until ctx is cancelled, then shuts it down within
// the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + a.Config.HTTP.Port,
		Handler:      a.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: a.Config.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.WithField("port", a.Config.HTTP.Port).Info("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.Log.Info("server exited")
	return nil
}

// Close stops background work, waits for pending cart pushes and releases
// the store.
func (a *App) Close() error {
	if a.Notify != nil {
		a.Notify.Stop()
	}
	var errs []error
	errs = append(errs, a.Cart.Close())
	errs = append(errs, a.Toasts.Close())
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
