package http

import (
	"net/http"

	"doctor-appointment-api/internal/delivery/http/handler"
	"doctor-appointment-api/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router             *mux.Router
	authHandler        *handler.AuthHandler
	appointmentHandler *handler.AppointmentHandler
	paymentHandler     *handler.PaymentHandler
	categoryHandler    *handler.CategoryHandler
	doctorHandler      *handler.DoctorHandler
	auditLogHandler    *handler.AuditLogHandler
	healthHandler      *handler.HealthHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
	metricsMiddleware  *middleware.MetricsMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	paymentHandler *handler.PaymentHandler,
	categoryHandler *handler.CategoryHandler,
	doctorHandler *handler.DoctorHandler,
	auditLogHandler *handler.AuditLogHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metricsMiddleware *middleware.MetricsMiddleware,
) *Router {
	return &Router{
		router:             mux.NewRouter(),
		authHandler:        authHandler,
		appointmentHandler: appointmentHandler,
		paymentHandler:     paymentHandler,
		categoryHandler:    categoryHandler,
		doctorHandler:      doctorHandler,
		auditLogHandler:    auditLogHandler,
		healthHandler:      healthHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
		metricsMiddleware:  metricsMiddleware,
	}
}

func (r *Router) Setup() http.Handler {
	r.router.Use(r.metricsMiddleware.Handle)

	r.router.Handle("/metrics", r.metricsMiddleware.Handler()).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.healthHandler.Health).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)
	authProtected.HandleFunc("/password", r.authHandler.ChangePassword).Methods(http.MethodPut)

	// Categories: reads are public, writes are admin only
	api.HandleFunc("/category", r.categoryHandler.GetAll).Methods(http.MethodGet)
	api.HandleFunc("/category/{id}", r.categoryHandler.GetByID).Methods(http.MethodGet)

	categoryAdmin := api.PathPrefix("/category").Subrouter()
	categoryAdmin.Use(r.authMiddleware.Authenticate)
	categoryAdmin.Use(middleware.RequireAdmin)
	categoryAdmin.HandleFunc("", r.categoryHandler.Create).Methods(http.MethodPost)
	categoryAdmin.HandleFunc("/{id}", r.categoryHandler.Update).Methods(http.MethodPut)
	categoryAdmin.HandleFunc("/{id}", r.categoryHandler.Delete).Methods(http.MethodDelete)

	// Doctor profile management (doctor). Registered before /doctor/{id} so "profile" is not read as an id.
	doctorSelf := api.PathPrefix("/doctor").Subrouter()
	doctorSelf.Use(r.authMiddleware.Authenticate)
	doctorSelf.Use(middleware.RequireDoctor)
	doctorSelf.HandleFunc("/profile", r.doctorHandler.CreateProfile).Methods(http.MethodPost)
	doctorSelf.HandleFunc("/profile", r.doctorHandler.UpdateProfile).Methods(http.MethodPut)
	doctorSelf.HandleFunc("/availability", r.doctorHandler.UpdateAvailability).Methods(http.MethodPut)

	// Doctor directory (public)
	api.HandleFunc("/doctor", r.doctorHandler.GetDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctor/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	api.HandleFunc("/doctor/{id}/availability", r.doctorHandler.GetAvailability).Methods(http.MethodGet)

	// Appointments
	appointmentDoctor := api.PathPrefix("/appointment/doctor").Subrouter()
	appointmentDoctor.Use(r.authMiddleware.Authenticate)
	appointmentDoctor.Use(middleware.RequireDoctor)
	appointmentDoctor.HandleFunc("", r.appointmentHandler.GetDoctorAppointments).Methods(http.MethodGet)
	appointmentDoctor.HandleFunc("/status/{id}", r.appointmentHandler.UpdateStatus).Methods(http.MethodPut)

	appointmentPatient := api.PathPrefix("/appointment").Subrouter()
	appointmentPatient.Use(r.authMiddleware.Authenticate)
	appointmentPatient.Use(middleware.RequirePatient)
	appointmentPatient.HandleFunc("", r.appointmentHandler.Book).Methods(http.MethodPost)
	appointmentPatient.HandleFunc("/me", r.appointmentHandler.GetMyAppointments).Methods(http.MethodGet)
	appointmentPatient.HandleFunc("/cancel/{id}", r.appointmentHandler.Cancel).Methods(http.MethodPut)

	// Payments (patient)
	payment := api.PathPrefix("/payment").Subrouter()
	payment.Use(r.authMiddleware.Authenticate)
	payment.Use(middleware.RequirePatient)
	payment.HandleFunc("/create-intent", r.paymentHandler.CreateIntent).Methods(http.MethodPost)
	payment.HandleFunc("/confirm", r.paymentHandler.Confirm).Methods(http.MethodPost)
	payment.HandleFunc("/me", r.paymentHandler.GetMyPayments).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests are answered before route matching
	return r.corsMiddleware.Handle(r.router)
}
