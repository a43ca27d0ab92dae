package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenbasket/storefront/api/controllers"
	"github.com/greenbasket/storefront/api/middleware"
	"github.com/greenbasket/storefront/internal/adminqueue"
	"github.com/greenbasket/storefront/internal/addresses"
	checkoutsvc "github.com/greenbasket/storefront/internal/checkout"
	"github.com/greenbasket/storefront/internal/pricing"
	"github.com/greenbasket/storefront/internal/preferences"
	"github.com/greenbasket/storefront/internal/selection"
	"github.com/greenbasket/storefront/internal/vouchers"
	"github.com/greenbasket/storefront/internal/wishlist"
	"github.com/greenbasket/storefront/pkg/clients/userapi"
	"github.com/greenbasket/storefront/pkg/clients/walletapi"
	"github.com/greenbasket/storefront/pkg/config"
	"github.com/greenbasket/storefront/pkg/eventbus"
	"github.com/greenbasket/storefront/pkg/logger"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Selection   selection.Service
	Vouchers    vouchers.Service
	Checkout    checkoutsvc.Service
	Addresses   addresses.Service
	Wishlist    wishlist.Service
	Preferences preferences.Service
	TopUps      adminqueue.TopUpService
	Products    adminqueue.ProductService
	Poller      *adminqueue.Poller
	Wallet      *walletapi.Client
	Users       *userapi.Client
	Bus         eventbus.Bus
	Fees        pricing.Fees
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart/selection", func(r chi.Router) {
			r.Get("/", controllers.CartSelection(deps.Selection, logg))
			r.Post("/items/{itemID}/toggle", controllers.CartToggleItem(deps.Selection, logg))
			r.Post("/select-all", controllers.CartSelectAll(deps.Selection, logg))
			r.Post("/clear", controllers.CartClearSelection(deps.Selection, logg))
		})

		r.Get("/quote", controllers.PriceQuote(deps.Selection, deps.Vouchers, deps.Fees, logg))

		r.Route("/vouchers", func(r chi.Router) {
			r.Get("/", controllers.ListAllVouchers(deps.Vouchers, logg))
			r.Get("/applied", controllers.AppliedVouchers(deps.Vouchers, logg))
			r.Get("/mode", controllers.VoucherMode(deps.Vouchers, logg))
			r.Put("/mode", controllers.SetVoucherMode(deps.Vouchers, logg))
			r.Route("/vendors/{vendorID}", func(r chi.Router) {
				r.Get("/", controllers.ListVendorVouchers(deps.Vouchers, logg))
				r.Post("/", controllers.ApplyVendorVoucher(deps.Vouchers, logg))
				r.Delete("/", controllers.RemoveVendorVoucher(deps.Vouchers, logg))
			})
		})

		r.Route("/promo", func(r chi.Router) {
			r.Post("/", controllers.ApplyPromo(deps.Vouchers, logg))
			r.Delete("/", controllers.ClearPromo(deps.Vouchers, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		r.Get("/checkout/confirmation", controllers.CheckoutConfirmation(deps.Checkout, logg))

		r.Get("/wallet/balance", controllers.WalletBalance(deps.Wallet, logg))

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
			r.Post("/", controllers.AddAddress(deps.Addresses, logg))
			r.Put("/profile-default", controllers.SyncProfileDefault(deps.Addresses, logg))
			r.Delete("/{addressID}", controllers.RemoveAddress(deps.Addresses, logg))
			r.Post("/{addressID}/select", controllers.SelectAddress(deps.Addresses, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
			r.Post("/{productID}", controllers.WishlistAdd(deps.Wishlist, logg))
			r.Delete("/{productID}", controllers.WishlistRemove(deps.Wishlist, logg))
		})

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/sidebar", controllers.SidebarPreference(deps.Preferences, logg))
			r.Put("/sidebar", controllers.SetSidebarPreference(deps.Preferences, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/topups", func(r chi.Router) {
			r.Get("/", controllers.AdminListTopUps(deps.TopUps, logg))
			r.Post("/{requestID}/approve", controllers.AdminApproveTopUp(deps.TopUps, logg))
			r.Post("/{requestID}/reject", controllers.AdminRejectTopUp(deps.TopUps, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.Products, logg))
			r.Post("/{productID}/approve", controllers.AdminApproveProduct(deps.Products, logg))
			r.Post("/{productID}/reject", controllers.AdminRejectProduct(deps.Products, logg))
		})

		r.Route("/queues", func(r chi.Router) {
			r.Get("/badges", controllers.AdminQueueBadges(deps.Poller, logg))
			r.Post("/badges/ack", controllers.AdminAckQueueBadge(deps.Poller, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(deps.Users, logg))
			r.Post("/{userID}/balance", controllers.AdminAdjustBalance(deps.Users, deps.Bus, logg))
			r.Get("/{userID}/transactions", controllers.AdminUserTransactions(deps.Users, logg))
		})
	})

	return r
}
