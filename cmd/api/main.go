package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vetclinic-backend/internal/appointments"
	"vetclinic-backend/internal/auth"
	"vetclinic-backend/internal/cache"
	"vetclinic-backend/internal/clients"
	"vetclinic-backend/internal/config"
	"vetclinic-backend/internal/consultations"
	"vetclinic-backend/internal/db"
	"vetclinic-backend/internal/invoices"
	"vetclinic-backend/internal/middleware"
	"vetclinic-backend/internal/notifications"
	"vetclinic-backend/internal/pets"
	"vetclinic-backend/internal/users"
	"vetclinic-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "vetclinic-backend",
		}
	} else {
		logger.Warn("JWT_SECRET not set, protected routes unavailable")
	}

	mailer := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.BrevoSandbox)
	if mailer == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	}

	val := validation.New()
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	userRepo := users.NewRepository(cols.Users)
	userService := users.NewService(userRepo, jwtManager, cfg.Timezone)
	userHandler := users.NewHandler(userService, val, logger)

	petRepo := pets.NewRepository(cols.Pets)
	petService := pets.NewService(petRepo, clients.NewDirectory(userRepo), cfg.Timezone)
	petHandler := pets.NewHandler(petService, val, logger)

	clientService := clients.NewService(userRepo, petService, cfg.Timezone)
	clientHandler := clients.NewHandler(clientService, val, logger)

	appointmentRepo := appointments.NewRepository(cols.Appointments)
	appointmentService := appointments.NewService(appointmentRepo, petService, userService, cfg.Timezone)
	appointmentHandler := appointments.NewHandler(appointmentService, val, logger, cacheStore, cacheTTL)
	if mailer != nil {
		appointmentHandler.EnableEmail(mailer, pets.NewOwnerContacts(petRepo, userRepo))
	}

	consultationRepo := consultations.NewRepository(cols.Consultations)
	consultationService := consultations.NewService(consultationRepo, petService, userService, cfg.Timezone)
	consultationHandler := consultations.NewHandler(consultationService, val, logger)

	invoiceRepo := invoices.NewRepository(cols.Invoices, cols.Counters)
	invoiceService := invoices.NewService(invoiceRepo, consultationService, cfg.PDFBaseURL, cfg.Timezone)
	invoiceHandler := invoices.NewHandler(invoiceService, val, logger)
	if mailer != nil {
		invoiceHandler.EnableEmail(mailer, userService)
	}

	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitBooking, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimitLogin, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	appointmentHandler.SetBookingLimiter(bookingLimiter.Middleware)

	authenticate := middleware.Authenticate(jwtManager)
	staffRoles := []string{users.RolAdministrador, users.RolVeterinario, users.RolSecretaria}

	registerRoutes := func(api chi.Router) {
		api.Route("/usuarios", func(r chi.Router) {
			r.With(loginLimiter.Middleware).Post("/login/", userHandler.Login)
			r.With(loginLimiter.Middleware).Post("/register/", userHandler.Register)
			r.Post("/refresh/", userHandler.Refresh)

			r.Group(func(admin chi.Router) {
				admin.Use(authenticate)
				admin.Use(middleware.RequireRoles(users.RolAdministrador))
				admin.Get("/", userHandler.List)
				admin.Post("/", userHandler.Create)
				admin.Get("/{id}/", userHandler.GetByID)
				admin.Put("/{id}/", userHandler.Update)
				admin.Delete("/{id}/", userHandler.Delete)
			})
		})

		api.Route("/citas", func(r chi.Router) {
			r.Use(authenticate)
			appointmentHandler.Routes(r)
		})

		api.Route("/clientes", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRoles(users.RolAdministrador, users.RolSecretaria))
			clientHandler.Routes(r)
		})

		api.Route("/mascotas/mascotas", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRoles(staffRoles...))
			petHandler.Routes(r)
		})

		api.Route("/consultas", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRoles(users.RolAdministrador, users.RolVeterinario))
			consultationHandler.Routes(r)
		})

		api.Route("/facturas", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRoles(users.RolAdministrador, users.RolSecretaria))
			invoiceHandler.Routes(r)
		})
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	r.Route("/api", registerRoutes)
	r.Route("/api/v1", registerRoutes)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
