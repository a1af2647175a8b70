package router

import (
	"net/http"

	"github.com/cx-tal-miterani/airline-reservation/internal/handlers"
	"github.com/cx-tal-miterani/airline-reservation/internal/session"
	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, sessions session.Store) *mux.Router {
	r := mux.NewRouter()

	// CORS middleware
	r.Use(corsMiddleware)
	r.Use(handlers.SessionMiddleware(sessions))

	// API routes
	api := r.PathPrefix("/api").Subrouter()

	// Registration and sessions
	api.HandleFunc("/register/customer", h.RegisterCustomer).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/register/staff", h.RegisterStaff).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/logout", h.Logout).Methods(http.MethodPost, http.MethodOptions)

	// Public flight lookups
	api.HandleFunc("/flights", h.SearchFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/status", h.FlightStatus).Methods(http.MethodGet, http.MethodOptions)

	// Purchases
	api.HandleFunc("/purchases", h.CreatePurchase).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/purchases", h.GetPurchases).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/upcoming", h.GetUpcomingFlights).Methods(http.MethodGet, http.MethodOptions)

	// Booking agent reports
	api.HandleFunc("/agent/commission", h.GetCommission).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/agent/top-customers", h.GetTopCustomers).Methods(http.MethodGet, http.MethodOptions)

	// Airline staff operations
	api.HandleFunc("/staff/flights", h.CreateFlight).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/staff/flights", h.GetAirlineFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/staff/flights/status", h.UpdateFlightStatus).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/staff/airplanes", h.AddAirplane).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/staff/airports", h.AddAirport).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/staff/agents", h.RegisterAgent).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/staff/permissions", h.GrantPermission).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/staff/top-destinations", h.GetTopDestinations).Methods(http.MethodGet, http.MethodOptions)

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
