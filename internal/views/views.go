package views

import (
	"embed"
	"html/template"
	"net/http"

	"lektoria/internal/flash"
	"lektoria/internal/logger"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Render рендерит страницу и подмешивает одноразовое уведомление из cookie.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if f := flash.Pop(w, r); f != nil {
		data["Flash"] = f
		if len(f.Errors) > 0 {
			data["Errors"] = f.Errors
		}
		if len(f.Old) > 0 {
			data["Old"] = f.Old
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		logger.Log.Error("Ошибка рендера шаблона", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
