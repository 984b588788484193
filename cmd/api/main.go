package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/gestion-pro/internal/application/auth"
	"github.com/tu-usuario/gestion-pro/internal/application/usecase"
	"github.com/tu-usuario/gestion-pro/internal/infrastructure/postgres"
	"github.com/tu-usuario/gestion-pro/internal/interfaces/http"
	"github.com/tu-usuario/gestion-pro/internal/tenancy"
	"github.com/tu-usuario/gestion-pro/pkg/config"
	"github.com/tu-usuario/gestion-pro/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	orgRepo := postgres.NewOrganizationRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	membershipRepo := postgres.NewMembershipRepository(pool)

	// Núcleo de tenancy: caché, verificador y fábrica de gateways.
	// El caché se crea acá y se inyecta: ciclo de vida atado al proceso.
	accessCache := tenancy.NewAccessCache(cfg.Tenancy.CacheTTL)
	verifier := tenancy.NewVerifier(accessCache, membershipRepo, userRepo, orgRepo,
		tenancy.VerifierConfig{SuperBypass: cfg.Tenancy.SuperBypass}, log)
	registry := tenancy.DefaultRegistry()
	gateways := tenancy.NewGatewayFactory(pool, registry, cfg.Tenancy.StrictOwnership, log)

	authUC := auth.NewAuthUseCase(userRepo, orgRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	orgUC := usecase.NewOrganizationUseCase(orgRepo)
	membershipUC := usecase.NewMembershipUseCase(membershipRepo, userRepo, accessCache)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Gestión-Pro API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	http.Router(app, http.RouterDeps{
		AuthUC:     authUC,
		OrgHandler: http.NewOrganizationHandler(orgUC, membershipUC, accessCache),
		Admin:      http.NewAdminHandler(accessCache),
		Tenant: http.TenantMiddlewareDeps{
			JWTSecret:    cfg.JWT.Secret,
			Verifier:     verifier,
			Gateways:     gateways,
			VerifyAccess: cfg.Tenancy.VerifyAccess,
			Log:          log,
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
