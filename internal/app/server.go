package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"microsite-app/config"
	addonsapi "microsite-app/internal/api/addons"
	adminapi "microsite-app/internal/api/admin"
	authapi "microsite-app/internal/api/auth"
	"microsite-app/internal/api/billing"
	siteapi "microsite-app/internal/api/site"
	stripewebhooks "microsite-app/internal/api/stripewebhook"
	"microsite-app/internal/api/users"
	routes "microsite-app/internal/app/http"
	"microsite-app/internal/infra/blob"
	"microsite-app/internal/infra/stripe"
	"microsite-app/internal/services/accounts"
	addonsvc "microsite-app/internal/services/addons"
	couponsvc "microsite-app/internal/services/coupons"
	"microsite-app/internal/services/domains"
	"microsite-app/internal/services/inquiries"
	"microsite-app/internal/services/payments"
	"microsite-app/internal/services/sites"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// HTTPModule provides the handlers and the gin engine and starts the server.
var HTTPModule = fx.Module("http",
	fx.Provide(
		provideHandlers,
		ProvideRouter,
	),
	fx.Invoke(StartServer),
)

func provideHandlers(
	cfg *config.Config,
	acc *accounts.Service,
	st *sites.Service,
	inq *inquiries.Service,
	ad *addonsvc.Manager,
	pay *payments.Service,
	cp *couponsvc.Validator,
	dom *domains.Workflow,
	uploader blob.Uploader,
	stripeClient *stripe.Client,
) routes.Handlers {
	return routes.Handlers{
		Auth:    authapi.NewHandler(acc),
		Users:   users.NewHandler(acc, st, dom, cfg.AppURL),
		Sites:   siteapi.NewHandler(st, inq, uploader, cfg.AppURL),
		Addons:  addonsapi.NewHandler(st, ad, pay, dom),
		Billing: billing.NewHandler(st, pay, cp),
		Admin:   adminapi.NewHandler(st, pay, cp, dom),
		Webhook: stripewebhooks.NewHandler(stripeClient, pay),
	}
}

func ProvideRouter(cfg *config.Config, h routes.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// ✅ Add CORS middleware BEFORE registering routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, h, cfg.JWTSecret)
	return r
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, shutdowner fx.Shutdowner) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				slog.Info("🚀 Starting HTTP server", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("❌ HTTP server failed", "err", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("Stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

// New assembles the server application.
func New(cfg *config.Config, logger *slog.Logger) *fx.App {
	return fx.New(
		fx.Supply(cfg, logger),
		fx.NopLogger,
		InfraModule,
		ServicesModule,
		HTTPModule,
	)
}
