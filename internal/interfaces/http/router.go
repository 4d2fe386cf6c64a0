package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	appanalytics "github.com/jhoicas/Cotizador-api/internal/application/analytics"
	"github.com/jhoicas/Cotizador-api/internal/application/auth"
	"github.com/jhoicas/Cotizador-api/internal/application/notification"
	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/application/usecase"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	CompanyUC     *usecase.CompanyUseCase
	CustomerUC    *usecase.CustomerUseCase
	ProductUC     *usecase.ProductUseCase
	ModuleService *usecase.ModuleService
	QuotationUC   *quoting.QuotationUseCase
	Preferences   *notification.PreferenceService
	Inbox         *notification.Inbox
	DashboardUC   *appanalytics.DashboardUseCase
	JWTSecret     string
	JWTIssuer     string
	// PublicRateLimit peticiones por minuto y por IP al enlace público; 0 = sin límite.
	PublicRateLimit int
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Alta de empresa (público: crea el tenant con su configuración inicial)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Post("/companies", companyHandler.Create)

	// Enlace público del cliente
	publicHandler := NewPublicHandler(deps.QuotationUC)
	public := api.Group("/public/quotations")
	if deps.PublicRateLimit > 0 {
		public.Use(limiter.New(limiter.Config{Max: deps.PublicRateLimit, Expiration: time.Minute}))
	}
	public.Get("/:token", publicHandler.View)
	public.Post("/:token/accept", publicHandler.Accept)
	public.Post("/:token/reject", publicHandler.Reject)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	anyRole := RequireRole(RoleAdmin, RoleVendedor, RoleConsulta)
	writers := RequireRole(RoleAdmin, RoleVendedor)
	adminOnly := RequireRole(RoleAdmin)

	protected.Get("/auth/me", authHandler.Me)
	protected.Get("/companies/:id", anyRole, companyHandler.GetByID)
	protected.Get("/settings", anyRole, companyHandler.GetSettings)
	protected.Put("/settings", adminOnly, companyHandler.UpdateSettings)
	protected.Get("/branding", anyRole, companyHandler.GetBranding)
	protected.Put("/branding", adminOnly, companyHandler.UpdateBranding)

	// Customers
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers := protected.Group("/customers")
	customers.Post("/", writers, customerHandler.Create)
	customers.Get("/", anyRole, customerHandler.List)
	customers.Get("/:id", anyRole, customerHandler.GetByID)
	customers.Put("/:id", writers, customerHandler.Update)

	// Products
	productHandler := NewProductHandler(deps.ProductUC)
	products := protected.Group("/products")
	products.Post("/", writers, productHandler.Create)
	products.Get("/", anyRole, productHandler.List)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Put("/:id", writers, productHandler.Update)

	// Quotations (módulo quotations)
	quotationHandler := NewQuotationHandler(deps.QuotationUC)
	quotations := protected.Group("/quotations", RequireModule(entity.ModuleQuotations, deps.ModuleService))
	quotations.Post("/", writers, quotationHandler.Create)
	quotations.Get("/", anyRole, quotationHandler.List)
	quotations.Get("/:id", anyRole, quotationHandler.GetByID)
	quotations.Put("/:id", writers, quotationHandler.Update)
	quotations.Post("/:id/send", writers, quotationHandler.Transition(entity.QuotationStatusSent))
	quotations.Post("/:id/accept", writers, quotationHandler.Transition(entity.QuotationStatusAccepted))
	quotations.Post("/:id/reject", writers, quotationHandler.Transition(entity.QuotationStatusRejected))
	quotations.Post("/:id/cancel", writers, quotationHandler.Transition(entity.QuotationStatusCancelled))
	quotations.Post("/:id/expire", writers, quotationHandler.Transition(entity.QuotationStatusExpired))
	quotations.Post("/:id/revise", writers, quotationHandler.Revise)
	quotations.Get("/:id/pdf", anyRole, quotationHandler.PDF)
	quotations.Get("/:id/ubl", anyRole, quotationHandler.UBL)

	// Notifications (módulo notifications)
	notificationHandler := NewNotificationHandler(deps.Preferences, deps.Inbox)
	notifications := protected.Group("/notifications", RequireModule(entity.ModuleNotifications, deps.ModuleService))
	notifications.Get("/", anyRole, notificationHandler.List)
	notifications.Post("/:id/read", anyRole, notificationHandler.MarkRead)
	notifications.Get("/preferences", anyRole, notificationHandler.GetMyPreferences)
	notifications.Put("/preferences", anyRole, notificationHandler.UpdateMyPreferences)
	notifications.Get("/preferences/company", anyRole, notificationHandler.GetCompanyPreferences)
	notifications.Put("/preferences/company", adminOnly, notificationHandler.UpdateCompanyPreferences)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard/quotations", anyRole, RequireModule(entity.ModuleQuotations, deps.ModuleService), dashboardHandler.GetQuotationSummary)
}
