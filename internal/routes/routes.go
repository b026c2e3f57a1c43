package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/analytics"
	"github.com/BruksfildServices01/barber-manager/internal/assistant"
	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	"github.com/BruksfildServices01/barber-manager/internal/config"
	"github.com/BruksfildServices01/barber-manager/internal/domain/staff"
	"github.com/BruksfildServices01/barber-manager/internal/handlers"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/media"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/payments"
	"github.com/BruksfildServices01/barber-manager/internal/recovery"
	ucAppointment "github.com/BruksfildServices01/barber-manager/internal/usecase/appointment"
	ucConversation "github.com/BruksfildServices01/barber-manager/internal/usecase/conversation"
	"github.com/BruksfildServices01/barber-manager/internal/whatsapp"
)

// Deps are the singletons built in main. Integrations left unconfigured come
// in as their disabled implementations; Advisor may be nil.
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Audit     audit.Recorder
	Cache     cache.Cache
	Payments  payments.Gateway
	Uploader  *media.Uploader
	Notifier  notify.Notifier
	WhatsApp  whatsapp.Gateway
	Assistant assistant.Responder
	Advisor   analytics.Advisor
	Limiter   *middleware.IPRateLimiter
}

func preflight(c *gin.Context) { c.Status(http.StatusNoContent) }

func RegisterRoutes(r *gin.Engine, d Deps) {
	db, cfg := d.DB, d.Config

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	conversationRepo := infraRepo.NewConversationGormRepository(db)

	handleMessage := ucConversation.NewHandleMessage(
		conversationRepo,
		d.Assistant,
		d.WhatsApp,
		assistant.BookingDeps{
			Repo:         appointmentRepo,
			Availability: ucAppointment.NewGetAvailability(appointmentRepo),
			Create:       ucAppointment.NewCreateAppointment(appointmentRepo, d.Audit, d.Cache),
			Notifier:     d.Notifier,
		},
		d.Audit,
	)
	recoveryService := recovery.NewService(conversationRepo, d.WhatsApp, cfg.WebhookURL, d.Audit)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)
	barbershopHandler := handlers.NewBarbershopHandler(db, d.Audit, d.Uploader)
	staffHandler := handlers.NewStaffHandler(db, d.Audit, d.Uploader)
	catalogHandler := handlers.NewCatalogHandler(db, d.Audit)
	clientHandler := handlers.NewClientHandler(db)
	hoursHandler := handlers.NewBusinessHoursHandler(db, d.Audit, d.Cache)
	appointmentHandler := handlers.NewAppointmentHandler(db, d.Audit, d.Cache)
	commandHandler := handlers.NewCommandHandler(db, d.Audit)
	registerHandler := handlers.NewCashRegisterHandler(db, d.Audit)
	subscriptionHandler := handlers.NewSubscriptionHandler(db, d.Payments, d.Audit,
		cfg.PublicBaseURL+"/webhooks/mercadopago")
	reportHandler := handlers.NewReportHandler(db)
	reviewHandler := handlers.NewReviewHandler(db, d.Audit)
	whatsappHandler := handlers.NewWhatsAppHandler(db, handleMessage, recoveryService,
		d.WhatsApp, cfg.WebhookURL, d.Audit)
	functionsHandler := handlers.NewFunctionsHandler(db, d.Advisor, handleMessage, recoveryService, d.Audit)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)
	publicHandler := handlers.NewPublicHandler(db, d.Audit, d.Cache)

	auth := middleware.AuthMiddleware(cfg)
	limited := middleware.RateLimit(d.Limiter)
	admin := middleware.RequireRole(staff.RoleAdmin)
	managers := middleware.RequireRole(staff.RoleAdmin, staff.RoleReceptionist)

	// ======================================================
	// WEBHOOKS
	// ======================================================
	webhooks := r.Group("/webhooks", limited)
	{
		webhooks.POST("/whatsapp/:instance", whatsappHandler.Webhook)
		webhooks.POST("/mercadopago", subscriptionHandler.PaymentWebhook)
	}

	// ======================================================
	// AVALIAÇÕES (link enviado ao cliente)
	// ======================================================
	review := r.Group("/review", middleware.CORSMiddleware())
	{
		review.GET("/:slug", reviewHandler.Page)
		review.POST("/:slug", limited, reviewHandler.Submit)
		review.OPTIONS("/:slug", preflight)
	}

	// ======================================================
	// FUNCTIONS (CORS *)
	// ======================================================
	functions := r.Group("/functions/v1", middleware.FunctionsCORS())
	{
		functions.OPTIONS("/*path", preflight)

		functions.POST("/whatsapp-ai-assistant", limited, functionsHandler.WhatsAppAssistant)

		functions.POST("/ai-analytics", auth, managers, functionsHandler.AIAnalytics)
		functions.POST("/historical-data-generator", auth, admin, functionsHandler.HistoricalData)
		functions.POST("/whatsapp-system-recovery", auth, managers, functionsHandler.SystemRecovery)
		functions.POST("/whatsapp-verify-and-fix", auth, managers, functionsHandler.VerifyAndFix)
	}

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api", middleware.CORSMiddleware())
	api.OPTIONS("/*path", preflight)
	{
		// ------------------------------
		// API PÚBLICA (agendamento online)
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/:slug/catalog", publicHandler.Catalog)
			publicAPI.GET("/:slug/availability", publicHandler.Availability)
			publicAPI.POST("/:slug/appointments", limited, publicHandler.CreateAppointment)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", limited, authHandler.Register)
		api.POST("/auth/login", limited, authHandler.Login)

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/", auth)
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/me/barbershop", barbershopHandler.GetMeBarbershop)
			secured.PATCH("/me/barbershop", admin, barbershopHandler.UpdateMeBarbershop)
			secured.POST("/me/barbershop/logo", admin, barbershopHandler.UploadLogo)

			secured.GET("/me/business-hours", hoursHandler.Get)
			secured.PUT("/me/business-hours", managers, hoursHandler.Update)

			secured.GET("/me/whatsapp", managers, whatsappHandler.GetInstance)
			secured.PUT("/me/whatsapp", admin, whatsappHandler.SaveInstance)

			secured.GET("/me/audit-logs", admin, auditLogsHandler.List)

			// ------------------------------
			// EQUIPE
			// ------------------------------
			secured.GET("/staff", staffHandler.List)
			secured.POST("/staff", admin, staffHandler.Create)
			secured.PATCH("/staff/:id", admin, staffHandler.Update)
			secured.POST("/staff/:id/avatar", staffHandler.UploadAvatar)

			// ------------------------------
			// CATÁLOGO
			// ------------------------------
			secured.GET("/services", catalogHandler.ListServices)
			secured.POST("/services", managers, catalogHandler.CreateService)
			secured.PATCH("/services/:id", managers, catalogHandler.UpdateService)

			secured.GET("/products", catalogHandler.ListProducts)
			secured.POST("/products", managers, catalogHandler.CreateProduct)
			secured.PATCH("/products/:id", managers, catalogHandler.UpdateProduct)
			secured.POST("/products/:id/stock", managers, catalogHandler.AdjustStock)

			secured.GET("/clients", clientHandler.List)
			secured.POST("/clients", clientHandler.Create)
			secured.GET("/clients/:id", clientHandler.Get)
			secured.PATCH("/clients/:id", clientHandler.Update)
			secured.GET("/clients/:id/subscriptions", subscriptionHandler.ListByClient)

			// ------------------------------
			// AGENDA
			// ------------------------------
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)
			secured.GET("/appointments/availability", appointmentHandler.Availability)
			secured.GET("/appointments/grid", appointmentHandler.DayGrid)
			secured.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/no-show", appointmentHandler.NoShow)
			secured.DELETE("/appointments/:id", managers, appointmentHandler.Delete)
			secured.POST("/appointments/:id/command", commandHandler.OpenForAppointment)

			// ------------------------------
			// COMANDAS / CAIXA
			// ------------------------------
			secured.GET("/commands", commandHandler.List)
			secured.POST("/commands", commandHandler.Open)
			secured.GET("/commands/:id", commandHandler.Get)
			secured.POST("/commands/:id/items", commandHandler.AddItem)
			secured.DELETE("/commands/:id/items/:itemId", commandHandler.RemoveItem)
			secured.POST("/commands/:id/close", commandHandler.Close)

			secured.POST("/cash-register", managers, registerHandler.Open)
			secured.GET("/cash-register/current", managers, registerHandler.Current)
			secured.GET("/cash-register/history", managers, registerHandler.History)
			secured.GET("/cash-register/:id", managers, registerHandler.Get)
			secured.POST("/cash-register/:id/close", managers, registerHandler.Close)

			// ------------------------------
			// ASSINATURAS
			// ------------------------------
			secured.GET("/subscription-plans", subscriptionHandler.ListPlans)
			secured.POST("/subscription-plans", admin, subscriptionHandler.CreatePlan)
			secured.PATCH("/subscription-plans/:id", admin, subscriptionHandler.UpdatePlan)
			secured.POST("/subscriptions", managers, subscriptionHandler.Subscribe)
			secured.POST("/subscriptions/:id/cancel", managers, subscriptionHandler.Cancel)
			secured.GET("/subscriptions/payout", managers, subscriptionHandler.Payout)

			// ------------------------------
			// RELATÓRIOS / AVALIAÇÕES
			// ------------------------------
			secured.GET("/reports/commissions", reportHandler.Commissions)
			secured.GET("/reports/sales", managers, reportHandler.Sales)
			secured.GET("/reports/export", managers, reportHandler.Export)

			secured.GET("/reviews", reviewHandler.List)
			secured.GET("/reviews/summary", reviewHandler.Summary)

			// ------------------------------
			// WHATSAPP
			// ------------------------------
			secured.GET("/whatsapp/conversations", managers, whatsappHandler.ListConversations)
			secured.GET("/whatsapp/conversations/:id/messages", managers, whatsappHandler.ListMessages)
			secured.PATCH("/whatsapp/conversations/:id/status", managers, whatsappHandler.SetStatus)
			secured.POST("/whatsapp/recovery", managers, whatsappHandler.Recover)
		}
	}
}
