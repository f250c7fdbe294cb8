package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mediwrap/platform/internal/admin"
	"github.com/mediwrap/platform/internal/appointments"
	"github.com/mediwrap/platform/internal/blooddonation"
	"github.com/mediwrap/platform/internal/cart"
	"github.com/mediwrap/platform/internal/community"
	"github.com/mediwrap/platform/internal/doctors"
	httpmiddleware "github.com/mediwrap/platform/internal/http/middleware"
	"github.com/mediwrap/platform/internal/observability/metrics"
	"github.com/mediwrap/platform/internal/products"
	"github.com/mediwrap/platform/internal/realtime"
	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	Verifier            httpmiddleware.TokenVerifier
	SessionHandler      *session.Handler
	DoctorsHandler      *doctors.Handler
	ProductsHandler     *products.Handler
	CartHandler         *cart.Handler
	AppointmentsHandler *appointments.Handler
	CommunityHandler    *community.Handler
	BloodHandler        *blooddonation.Handler
	AdminHandler        *admin.Handler
	RealtimeHandler     *realtime.Handler
	HTTPMetrics         *metrics.HTTPMetrics
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Requests/sec and burst applied per IP to the auth endpoints.
	AuthRateLimit float64
	AuthRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(httpmiddleware.Instrument(cfg.HTTPMetrics))
	}
	if cfg.Verifier != nil {
		r.Use(httpmiddleware.Authenticate(cfg.Verifier))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.SessionHandler != nil {
			public.Route("/auth", func(auth chi.Router) {
				if cfg.AuthRateLimit > 0 {
					auth.Use(httpmiddleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst))
				}
				auth.Post("/login", cfg.SessionHandler.Login)
				auth.Post("/signup", cfg.SessionHandler.Signup)
			})
		}

		if cfg.DoctorsHandler != nil {
			public.Get("/doctors", cfg.DoctorsHandler.List)
			public.Get("/doctors/{doctorID}", cfg.DoctorsHandler.Get)
		}
		if cfg.ProductsHandler != nil {
			public.Get("/products", cfg.ProductsHandler.List)
			public.Get("/products/{productID}", cfg.ProductsHandler.Get)
		}
		if cfg.CommunityHandler != nil {
			public.Get("/community/posts", cfg.CommunityHandler.List)
		}
		if cfg.BloodHandler != nil {
			public.Get("/blood/centers", cfg.BloodHandler.ListCenters)
			public.Get("/blood/requests", cfg.BloodHandler.ListRequests)
		}
		// Anonymous connections only receive public collection changes.
		if cfg.RealtimeHandler != nil {
			public.Get("/ws", cfg.RealtimeHandler.HandleWebSocket)
		}
	})

	// Signed-in users
	r.Group(func(authed chi.Router) {
		authed.Use(httpmiddleware.RequireAuth)

		if cfg.SessionHandler != nil {
			authed.Get("/auth/session", cfg.SessionHandler.Current)
			authed.Post("/auth/logout", cfg.SessionHandler.Logout)
		}
		if cfg.CartHandler != nil {
			authed.Route("/cart", func(c chi.Router) {
				c.Get("/", cfg.CartHandler.Get)
				c.Delete("/", cfg.CartHandler.Clear)
				c.Post("/items", cfg.CartHandler.Add)
				c.Delete("/items/{productID}", cfg.CartHandler.Remove)
				c.Patch("/items/{productID}", cfg.CartHandler.UpdateQuantity)
			})
		}
		if cfg.AppointmentsHandler != nil {
			authed.Post("/appointments", cfg.AppointmentsHandler.Book)
			authed.Get("/appointments", cfg.AppointmentsHandler.ListMine)
		}
		if cfg.CommunityHandler != nil {
			authed.Post("/community/posts", cfg.CommunityHandler.Create)
			authed.Post("/community/posts/{postID}/comments", cfg.CommunityHandler.Comment)
			authed.Post("/community/posts/{postID}/likes", cfg.CommunityHandler.Like)
		}
		if cfg.BloodHandler != nil {
			authed.Post("/blood/donors", cfg.BloodHandler.RegisterDonor)
			authed.Get("/blood/donors", cfg.BloodHandler.ListDonors)
			authed.Post("/blood/requests/{requestID}/notify", cfg.BloodHandler.NotifyMe)
		}
		// Users raise support tickets; only admins work them.
		if cfg.AdminHandler != nil {
			authed.Post("/support/tickets", cfg.AdminHandler.CreateTicket)
		}
	})

	// Doctor queue management
	r.Group(func(doctor chi.Router) {
		doctor.Use(httpmiddleware.RequireRole(session.RoleDoctor, session.RoleAdmin))

		if cfg.AppointmentsHandler != nil {
			doctor.Get("/doctors/{doctorID}/appointments", cfg.AppointmentsHandler.ListForDoctor)
			doctor.Patch("/appointments/{appointmentID}/status", cfg.AppointmentsHandler.UpdateStatus)
		}
	})

	// Admin routes
	r.Route("/admin", func(adm chi.Router) {
		adm.Use(httpmiddleware.RequireRole(session.RoleAdmin))

		if cfg.DoctorsHandler != nil {
			adm.Post("/doctors", cfg.DoctorsHandler.Create)
			adm.Patch("/doctors/{doctorID}", cfg.DoctorsHandler.Update)
		}
		if cfg.ProductsHandler != nil {
			adm.Post("/products", cfg.ProductsHandler.Add)
			adm.Patch("/products/{productID}/stock", cfg.ProductsHandler.UpdateStock)
		}
		if cfg.AdminHandler != nil {
			adm.Get("/users", cfg.AdminHandler.ListUsers)
			adm.Get("/tickets", cfg.AdminHandler.ListTickets)
			adm.Post("/tickets", cfg.AdminHandler.CreateTicket)
			adm.Patch("/tickets/{ticketID}/status", cfg.AdminHandler.TransitionTicket)
			adm.Get("/stats", cfg.AdminHandler.GetStats)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
