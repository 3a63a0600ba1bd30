package app

import (
	"context"
	"time"

	"lektoria/internal/config"
	"lektoria/internal/db"
	"lektoria/internal/handlers"
	"lektoria/internal/repository"
	"lektoria/internal/routes"
	"lektoria/internal/services"

	"github.com/gorilla/mux"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	if err := db.RunMigrations(cfg); err != nil {
		return nil, err
	}

	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	resetRepo := repository.NewPasswordResetRepository(conn)
	sessionRepo := repository.NewSessionRepository(conn)

	// Сервисы
	sessionTTL, rememberTTL := cfg.SessionTTLs()
	authService := services.NewAuthService(userRepo)
	emailService := services.NewEmailService(cfg)
	emailTokenService := services.NewEmailTokenService(userRepo)
	sessionService := services.NewSessionService(sessionRepo, cfg.SessionSecret, sessionTTL, rememberTTL)
	passwordService := services.NewPasswordService(resetRepo, userRepo, emailService, cfg.AppURL)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, sessionService, emailService, emailTokenService, cfg.AppURL)
	passwordHandler := handlers.NewPasswordHandler(passwordService)

	// Периодическая чистка просроченных сессий
	StartSessionCleaner(sessionService)

	// Воркеры исходящей почты
	for i := 0; i < 3; i++ {
		services.StartEmailWorker(emailService)
	}

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, passwordHandler, sessionService)

	return router, nil
}

func StartSessionCleaner(sessions *services.SessionService) {
	t := time.NewTicker(1 * time.Hour)
	go func() {
		for range t.C {
			_ = sessions.DeleteExpired(context.Background())
		}
	}()
}
