package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// Handlers groups everything the router mounts. Metrics may be nil.
type Handlers struct {
	Session       *session.Manager
	Auth          *SessionHandler
	Cart          *CartHandler
	Wishlist      *WishlistHandler
	Products      *ProductHandler
	Orders        *OrdersHandler
	Admin         *AdminHandler
	Notifications *NotificationsHandler
	Metrics       http.Handler
}

func NewRouter(h Handlers, requestTimeout time.Duration, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	authenticated := RequireAuth(h.Session)
	staff := RequireRoles(h.Session, domain.RoleAdmin, domain.RoleManager)
	adminOnly := RequireRoles(h.Session, domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.Auth.Current)
			r.Post("/login", h.Auth.Login)
			r.Post("/register", h.Auth.Register)
			r.Post("/logout", h.Auth.Logout)
		})

		// The cart and wishlist live locally and work signed out.
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.Clear)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			r.With(authenticated).Post("/sync", h.Cart.Sync)
			r.With(authenticated).Post("/fetch", h.Cart.Fetch)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.Wishlist.GetWishlist)
			r.Delete("/", h.Wishlist.Clear)
			r.Post("/items", h.Wishlist.AddItem)
			r.Delete("/items/{product_id}", h.Wishlist.RemoveItem)
			r.Post("/items/{product_id}/move-to-cart", h.Wishlist.MoveToCart)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.Search)
			r.Get("/{id}", h.Products.GetProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", h.Orders.ListOrders)
			r.Get("/quote", h.Cart.Quote)
			r.Post("/checkout", h.Cart.Checkout)
			r.Get("/{id}", h.Orders.GetOrder)
			r.Post("/{id}/cancel", h.Orders.CancelOrder)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.Notifications.List)
			r.Delete("/{id}", h.Notifications.Dismiss)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(staff)
			r.Get("/dashboard", h.Admin.Dashboard)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Admin.ListOrders)
				r.Put("/{id}/status", h.Admin.UpdateOrderStatus)
				r.Get("/{id}/notes", h.Admin.ListNotes)
				r.Post("/{id}/notes", h.Admin.AddNote)
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", h.Products.Create)
				r.Put("/{id}", h.Products.Update)
				r.Patch("/{id}/toggle-status", h.Products.ToggleStatus)
				r.With(adminOnly).Delete("/{id}", h.Products.Delete)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", h.Admin.ListUsers)
				r.Post("/", h.Admin.CreateUser)
				r.Get("/{id}", h.Admin.GetUser)
				r.Get("/{id}/roles", h.Admin.UserRoles)
				r.Post("/{id}/roles", h.Admin.AssignRole)
				r.Delete("/{id}/roles/{roleId}", h.Admin.RemoveRole)
				r.Put("/{id}/activate", h.Admin.SetActive(true))
				r.Put("/{id}/deactivate", h.Admin.SetActive(false))
			})

			r.With(adminOnly).Get("/roles", h.Admin.ListRoles)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
