package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lektoria/internal/flash"
	"lektoria/internal/logger"
	"lektoria/internal/middleware"
	"lektoria/internal/models"
	"lektoria/internal/services"
	"lektoria/internal/views"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Сообщение при неудачном входе одно на все случаи: неверный пароль,
// несуществующий и неподтверждённый аккаунт снаружи неотличимы.
const (
	msgLoginFailed    = "Не удалось проверить ваши данные. Убедитесь, что вы подтвердили адрес электронной почты."
	msgRegistered     = "Регистрация прошла успешно! Мы отправили письмо на вашу почту — подтвердите адрес электронной почты."
	msgEmailConfirmed = "Ваш адрес электронной почты подтверждён."
	msgConfirmInvalid = "Ссылка подтверждения недействительна."
	msgFormInvalid    = "Проверьте правильность заполнения формы."
	msgInternalError  = "Что-то пошло не так. Попробуйте ещё раз."
)

type AuthHandler struct {
	authService       *services.AuthService
	sessionService    *services.SessionService
	emailService      *services.EmailService
	emailTokenService *services.EmailTokenService
	appURL            string
}

func NewAuthHandler(
	authService *services.AuthService,
	sessionService *services.SessionService,
	emailService *services.EmailService,
	emailTokenService *services.EmailTokenService,
	appURL string,
) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		sessionService:    sessionService,
		emailService:      emailService,
		emailTokenService: emailTokenService,
		appURL:            appURL,
	}
}

type registerPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p registerPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username,
			validation.Required.Error("укажите имя пользователя"),
			validation.Length(2, 80).Error("имя пользователя должно быть от 2 до 80 символов"),
		),
		validation.Field(&p.Email,
			validation.Required.Error("укажите адрес электронной почты"),
			is.Email.Error("некорректный адрес электронной почты"),
		),
		validation.Field(&p.Password,
			validation.Required.Error("укажите пароль"),
			validation.Length(6, 100).Error("пароль должен быть от 6 до 100 символов"),
		),
	)
}

func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, "login.html", map[string]any{"Title": "Вход"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	if err := r.ParseForm(); err != nil {
		log.Warn("Невалидная форма в Login", zap.Error(err))
		flash.Danger(w, msgFormInvalid)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.PostFormValue("email")))
	password := r.PostFormValue("password")
	remember := r.PostFormValue("remember") != ""

	user, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		flash.Set(w, flash.Flash{
			Type:    flash.TypeDanger,
			Message: msgLoginFailed,
			Old:     map[string]string{"email": email},
		})
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	token, expiresAt, err := h.sessionService.Create(r.Context(), user.ID, remember)
	if err != nil {
		log.Error("Не удалось открыть сессию", zap.Error(err), zap.Int("user_id", user.ID))
		flash.Danger(w, msgInternalError)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	cookie := &http.Cookie{
		Name:     services.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	}
	if remember {
		cookie.Expires = expiresAt
	}
	http.SetCookie(w, cookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(services.SessionCookie); err == nil {
		_ = h.sessionService.Destroy(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     services.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, "register.html", map[string]any{"Title": "Регистрация"})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	if err := r.ParseForm(); err != nil {
		log.Warn("Невалидная форма в Register", zap.Error(err))
		flash.Danger(w, msgFormInvalid)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	payload := registerPayload{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(strings.ToLower(r.PostFormValue("email"))),
		Password: r.PostFormValue("password"),
	}
	// пароль в flash не кладём
	old := map[string]string{"username": payload.Username, "email": payload.Email}

	if err := payload.Validate(); err != nil {
		flash.Set(w, flash.Flash{
			Type:    flash.TypeDanger,
			Message: msgFormInvalid,
			Errors:  formatValidationErrors(err),
			Old:     old,
		})
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	user := &models.User{Username: payload.Username, Email: payload.Email}
	err := h.authService.Register(r.Context(), user, payload.Password)
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		flash.Set(w, flash.Flash{
			Type:    flash.TypeDanger,
			Message: msgFormInvalid,
			Errors:  map[string]string{"username": err.Error()},
			Old:     old,
		})
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	case errors.Is(err, services.ErrEmailTaken):
		flash.Set(w, flash.Flash{
			Type:    flash.TypeDanger,
			Message: msgFormInvalid,
			Errors:  map[string]string{"email": err.Error()},
			Old:     old,
		})
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	case err != nil:
		log.Error("Ошибка регистрации пользователя", zap.Error(err))
		flash.Danger(w, msgInternalError)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	// Успех показываем независимо от судьбы письма
	confirmLink := fmt.Sprintf("%s/confirm/%s", h.appURL, *user.ConfirmationToken)
	_ = h.emailService.SendConfirmation(r.Context(), user.Email, user.Username, confirmLink)

	flash.Success(w, msgRegistered)
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}

func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	if _, err := h.emailTokenService.Confirm(r.Context(), token); err != nil {
		logger.WithCtx(r.Context()).Warn("Не удалось подтвердить почту", zap.Error(err))
		flash.Danger(w, msgConfirmInvalid)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	flash.Success(w, msgEmailConfirmed)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	views.Render(w, r, "home.html", map[string]any{
		"Title":    "Главная",
		"Username": user.Username,
	})
}
