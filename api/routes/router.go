package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floragems/floragems-backend/api/controllers"
	"github.com/floragems/floragems-backend/api/middleware"
	"github.com/floragems/floragems-backend/internal/cart"
	"github.com/floragems/floragems-backend/internal/orders"
	"github.com/floragems/floragems-backend/internal/products"
	"github.com/floragems/floragems-backend/internal/reviews"
	"github.com/floragems/floragems-backend/internal/stats"
	"github.com/floragems/floragems-backend/internal/subcategories"
	"github.com/floragems/floragems-backend/internal/users"
	"github.com/floragems/floragems-backend/pkg/config"
	"github.com/floragems/floragems-backend/pkg/logger"
	"github.com/floragems/floragems-backend/pkg/metrics"
	"github.com/floragems/floragems-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        *redis.Client
	HTTPMetrics  *metrics.HTTPMetrics
	BlockChecker middleware.BlockChecker

	Users         users.Service
	Products      products.Service
	SubCategories subcategories.Service
	Cart          cart.Service
	Orders        orders.Service
	Reviews       reviews.Service
	Stats         stats.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins...),
	)
	if d.HTTPMetrics != nil {
		r.Use(middleware.Metrics(d.HTTPMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	authn := middleware.Auth(cfg.JWT, d.BlockChecker, logg)
	adminOnly := middleware.RequireAdmin(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).
			Post("/register", controllers.Register(d.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
			Post("/login", controllers.Login(d.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
			Post("/google-login", controllers.GoogleLogin(d.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
			Post("/admin-login", controllers.AdminLogin(d.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).
			Post("/forgot-password", controllers.ForgotPassword(d.Users, logg))
		r.Post("/reset-password", controllers.ResetPassword(d.Users, logg))

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/profile", controllers.Profile(d.Users, logg))
			r.Put("/profile", controllers.UpdateProfile(d.Users, logg))
			r.Post("/change-password", controllers.ChangePassword(d.Users, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authn, adminOnly)
			r.Get("/list", controllers.ListUsers(d.Users, logg))
			r.Post("/{userID}/block", controllers.BlockUser(d.Users, logg))
			r.Delete("/{userID}", controllers.DeleteUser(d.Users, logg))
		})
	})

	r.Route("/api/product", func(r chi.Router) {
		r.Get("/list", controllers.ProductList(d.Products, logg))
		r.Get("/{productID}", controllers.ProductSingle(d.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authn, adminOnly)
			r.Post("/add", controllers.ProductAdd(d.Products, logg))
			r.Get("/all", controllers.ProductListAll(d.Products, logg))
			r.Put("/{productID}", controllers.ProductUpdate(d.Products, logg))
			r.Delete("/{productID}", controllers.ProductRemove(d.Products, logg))
			r.Post("/{productID}/toggle", controllers.ProductToggleStatus(d.Products, logg))
		})
	})

	r.Route("/api/subcategory", func(r chi.Router) {
		r.Get("/list", controllers.SubCategoryList(d.SubCategories, logg))

		r.Group(func(r chi.Router) {
			r.Use(authn, adminOnly)
			r.Post("/add", controllers.SubCategoryAdd(d.SubCategories, logg))
			r.Delete("/{subCategoryID}", controllers.SubCategoryRemove(d.SubCategories, logg))
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authn)
		r.Get("/", controllers.CartGet(d.Cart, logg))
		r.Post("/add", controllers.CartAdd(d.Cart, logg))
		r.Post("/update", controllers.CartUpdate(d.Cart, logg))
	})

	r.Route("/api/order", func(r chi.Router) {
		r.Use(authn)
		r.Post("/place", controllers.OrderPlace(d.Orders, logg))
		r.Post("/place-stripe", controllers.OrderPlaceStripe(d.Orders, logg))
		r.Post("/verify-stripe", controllers.OrderVerifyStripe(d.Orders, logg))
		r.Get("/mine", controllers.OrderUserList(d.Orders, logg))
		r.Post("/{orderID}/cancel", controllers.OrderCancel(d.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/list", controllers.OrderList(d.Orders, logg))
			r.Post("/{orderID}/status", controllers.OrderUpdateStatus(d.Orders, logg))
			r.Get("/{orderID}/refund", controllers.OrderRefundStatus(d.Orders, logg))
			r.Delete("/{orderID}", controllers.OrderRemove(d.Orders, logg))
		})
	})

	r.Route("/api/review", func(r chi.Router) {
		r.Get("/product/{productID}", controllers.ReviewListByProduct(d.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/add", controllers.ReviewAdd(d.Reviews, logg))
			r.Put("/{reviewID}", controllers.ReviewEdit(d.Reviews, logg))
			r.Get("/product/{productID}/mine", controllers.ReviewMine(d.Reviews, logg))
		})
	})

	r.Route("/api/stats", func(r chi.Router) {
		r.Use(authn, adminOnly)
		r.Get("/summary", controllers.StatsSummary(d.Stats, logg))
		r.Get("/top-product", controllers.StatsTopProduct(d.Stats, logg))
		r.Get("/top-customer", controllers.StatsTopCustomer(d.Stats, logg))
	})

	return r
}
