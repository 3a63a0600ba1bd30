package routes

import (
	"lektoria/internal/handlers"
	"lektoria/internal/middleware"
	"lektoria/internal/services"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	passwordHandler *handlers.PasswordHandler,
	sessionService *services.SessionService,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recoverer)

	// --- Только для авторизованных ---
	router.HandleFunc("/", middleware.RequireAuth(sessionService, authHandler.Home)).Methods("GET")
	router.HandleFunc("/logout", authHandler.Logout).Methods("GET", "POST")

	// --- Гостевые формы: вошедших уводим на главную ---
	router.HandleFunc("/login", middleware.Guest(sessionService, authHandler.ShowLogin)).Methods("GET")
	router.HandleFunc("/register", middleware.Guest(sessionService, authHandler.ShowRegister)).Methods("GET")

	// --- Публичные ---
	router.HandleFunc("/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/confirm/{token}", authHandler.ConfirmEmail).Methods("GET")

	router.HandleFunc("/password/email", passwordHandler.ShowForgotForm).Methods("GET")
	router.HandleFunc("/password/email", passwordHandler.SendResetLink).Methods("POST")
	router.HandleFunc("/password/reset/{token}", passwordHandler.ShowResetForm).Methods("GET")
	router.HandleFunc("/password/reset", passwordHandler.Reset).Methods("POST")
}
