package middleware

import (
	"context"
	"net/http"

	"lektoria/internal/reqctx"
	"lektoria/internal/services"
)

// RequireAuth пускает только запросы с живой сессией, остальных шлёт на /login.
func RequireAuth(sessions *services.SessionService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(services.SessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		session, err := sessions.Validate(r.Context(), cookie.Value)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), ContextUserID, session.UserID)
		ctx = reqctx.WithUserID(ctx, session.UserID)
		next(w, r.WithContext(ctx))
	}
}

// Guest — гостевой гард: уже вошедших с форм логина/регистрации уводим на главную.
func Guest(sessions *services.SessionService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(services.SessionCookie); err == nil {
			if _, err := sessions.Validate(r.Context(), cookie.Value); err == nil {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
		}
		next(w, r)
	}
}
