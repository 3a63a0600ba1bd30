// Package flash хранит одноразовые уведомления между редиректом и следующим запросом.
// Сообщение, ошибки полей и введённые значения формы живут в cookie ровно один запрос.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const cookieName = "lektoria_flash"

const (
	TypeSuccess = "success"
	TypeDanger  = "danger"
)

type Flash struct {
	Type    string            `json:"type,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Old     map[string]string `json:"old,omitempty"`
}

// Set сериализует уведомление в cookie перед редиректом.
func Set(w http.ResponseWriter, f Flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
	})
}

// Success — уведомление об успехе без ошибок полей.
func Success(w http.ResponseWriter, message string) {
	Set(w, Flash{Type: TypeSuccess, Message: message})
}

// Danger — уведомление об ошибке без ошибок полей.
func Danger(w http.ResponseWriter, message string) {
	Set(w, Flash{Type: TypeDanger, Message: message})
}

// Pop читает уведомление и сразу гасит cookie. Возвращает nil, если уведомления нет.
func Pop(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}
