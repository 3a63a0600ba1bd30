package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"lektoria/internal/flash"
	"lektoria/internal/logger"
	"lektoria/internal/services"
	"lektoria/internal/views"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	msgResetLinkSent     = "Ссылка для сброса пароля отправлена на вашу почту."
	msgNoSuchEmail       = "К сожалению, пользователь с таким адресом электронной почты не найден."
	msgResetTokenMissing = "Такого токена для сброса пароля не существует."
	msgPasswordReset     = "Ваш пароль был сброшен!"
)

type PasswordHandler struct {
	svc *services.PasswordService
}

func NewPasswordHandler(svc *services.PasswordService) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

type forgotPayload struct {
	Email string `json:"email"`
}

func (p forgotPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email,
			validation.Required.Error("укажите адрес электронной почты"),
			is.Email.Error("некорректный адрес электронной почты"),
		),
	)
}

type resetPayload struct {
	Token                string `json:"token"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (p resetPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required.Error("в форме отсутствует токен")),
		validation.Field(&p.Email,
			validation.Required.Error("укажите адрес электронной почты"),
			is.Email.Error("некорректный адрес электронной почты"),
		),
		validation.Field(&p.Password,
			validation.Required.Error("укажите новый пароль"),
			validation.Length(6, 100).Error("пароль должен быть от 6 до 100 символов"),
		),
		validation.Field(&p.PasswordConfirmation,
			validation.Required.Error("повторите пароль"),
			validation.By(validateStringEquals(p.Password, "пароли не совпадают")),
		),
	)
}

func (h *PasswordHandler) ShowForgotForm(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, "password_email.html", map[string]any{"Title": "Восстановление пароля"})
}

func (h *PasswordHandler) SendResetLink(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	if err := r.ParseForm(); err != nil {
		log.Warn("Невалидная форма в SendResetLink", zap.Error(err))
		flash.Danger(w, msgFormInvalid)
		http.Redirect(w, r, "/password/email", http.StatusSeeOther)
		return
	}

	payload := forgotPayload{Email: strings.TrimSpace(strings.ToLower(r.PostFormValue("email")))}
	if err := payload.Validate(); err != nil {
		flash.Set(w, flash.Flash{
			Type:    flash.TypeDanger,
			Message: msgFormInvalid,
			Errors:  formatValidationErrors(err),
			Old:     map[string]string{"email": payload.Email},
		})
		http.Redirect(w, r, "/password/email", http.StatusSeeOther)
		return
	}

	// Любой сбой — включая сбой хранилища — показываем одним сообщением
	if err := h.svc.RequestReset(r.Context(), payload.Email); err != nil {
		if !errors.Is(err, services.ErrUserNotFound) {
			log.Error("Сбой при запросе сброса пароля", zap.Error(err))
		}
		flash.Danger(w, msgNoSuchEmail)
		http.Redirect(w, r, "/password/email", http.StatusSeeOther)
		return
	}

	flash.Success(w, msgResetLinkSent)
	http.Redirect(w, r, "/password/email", http.StatusSeeOther)
}

func (h *PasswordHandler) ShowResetForm(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	views.Render(w, r, "password_reset.html", map[string]any{
		"Title": "Новый пароль",
		"Token": token,
	})
}

func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	if err := r.ParseForm(); err != nil {
		log.Warn("Невалидная форма в Reset", zap.Error(err))
		flash.Danger(w, msgFormInvalid)
		http.Redirect(w, r, "/password/email", http.StatusSeeOther)
		return
	}

	payload := resetPayload{
		Token:                strings.TrimSpace(r.PostFormValue("token")),
		Email:                strings.TrimSpace(strings.ToLower(r.PostFormValue("email"))),
		Password:             r.PostFormValue("password"),
		PasswordConfirmation: r.PostFormValue("password_confirmation"),
	}
	back := resetFormURL(payload.Token)

	if err := payload.Validate(); err != nil {
		flash.Set(w, flash.Flash{
			Type:    flash.TypeDanger,
			Message: msgFormInvalid,
			Errors:  formatValidationErrors(err),
			Old:     map[string]string{"email": payload.Email},
		})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	err := h.svc.ResetPassword(r.Context(), payload.Email, payload.Token, payload.Password)
	switch {
	case errors.Is(err, services.ErrResetTokenInvalid):
		flash.Danger(w, msgResetTokenMissing)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	case err != nil:
		// ErrUserNotFound и сбои хранилища — одно общее сообщение
		if !errors.Is(err, services.ErrUserNotFound) {
			log.Error("Сбой при сбросе пароля", zap.Error(err))
		}
		flash.Danger(w, msgNoSuchEmail)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	flash.Success(w, msgPasswordReset)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func resetFormURL(token string) string {
	if token == "" {
		return "/password/email"
	}
	return "/password/reset/" + url.PathEscape(token)
}
