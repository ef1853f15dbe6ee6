package routes

import (
	"net/http"

	addonsapi "microsite-app/internal/api/addons"
	adminapi "microsite-app/internal/api/admin"
	authapi "microsite-app/internal/api/auth"
	"microsite-app/internal/api/billing"
	siteapi "microsite-app/internal/api/site"
	stripewebhooks "microsite-app/internal/api/stripewebhook"
	"microsite-app/internal/api/users"
	"microsite-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth    *authapi.Handler
	Users   *users.Handler
	Sites   *siteapi.Handler
	Addons  *addonsapi.Handler
	Billing *billing.Handler
	Admin   *adminapi.Handler
	Webhook *stripewebhooks.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string) {
	// raw body, signature checked by the handler
	r.POST("/webhook/stripe", h.Webhook.Webhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ✅ Apply input sanitization to public routes only
	public := r.Group("/")
	public.Use(middleware.SanitizeInput())

	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)
	public.GET("/public/sites/:slug", h.Sites.Public)
	public.POST("/public/sites/:slug/inquiries", h.Sites.SubmitInquiry)
	public.GET("/domains/check", h.Addons.CheckDomain)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(jwtSecret))
	auth.GET("/me", h.Users.GetCurrentUser)
	auth.POST("/change-password", h.Auth.ChangePassword)

	auth.GET("/sites", h.Sites.List)
	auth.POST("/sites", h.Sites.Create)
	auth.GET("/sites/:id", h.Sites.Get)
	auth.PUT("/sites/:id", h.Sites.Update)
	auth.DELETE("/sites/:id", h.Sites.Delete)
	auth.POST("/sites/:id/status", h.Sites.SetStatus)
	auth.POST("/sites/:id/images", h.Sites.UploadImage)
	auth.GET("/sites/:id/lifecycle", h.Sites.Lifecycle)
	auth.GET("/sites/:id/inquiries", h.Sites.Inquiries)

	auth.GET("/sites/:id/addons", h.Addons.List)
	auth.POST("/sites/:id/addons/:type/install", h.Addons.Install)
	auth.POST("/sites/:id/addons/:type/toggle", h.Addons.Toggle)
	auth.PUT("/sites/:id/addons/:type/config", h.Addons.UpdateConfig)
	auth.POST("/sites/:id/addons/:type/purchase", h.Addons.Purchase)

	auth.GET("/sites/:id/domain", h.Addons.GetDomain)
	auth.POST("/sites/:id/domain", h.Addons.RequestDomain)
	auth.DELETE("/sites/:id/domain", h.Addons.DeleteDomain)

	auth.POST("/sites/:id/checkout", h.Billing.StartCheckout)
	auth.POST("/sites/:id/checkout/coupon", h.Billing.StageCoupon)
	auth.POST("/payments/complete", h.Billing.Complete)
	auth.GET("/payments", h.Billing.History)
	auth.POST("/coupons/validate", h.Billing.ValidateCoupon)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole("admin"))
	admin.GET("/sites", h.Admin.ListAllSites)
	admin.GET("/payments", h.Admin.ListAllPayments)
	admin.GET("/domains", h.Admin.ListDomains)
	admin.POST("/sites/:id/domain/transition", h.Admin.TransitionDomain)
	admin.GET("/coupons", h.Admin.ListCoupons)
	admin.POST("/coupons", h.Admin.CreateCoupon)
}
