package server

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"propertysite/internal/model"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"formattedPrice": func(p model.Property) string { return p.FormattedPrice() },
	"join":           strings.Join,
}).ParseFS(templateFS, "templates/*.gohtml"))

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		s.Logger.Errorf("render: Error executing template %#v, err: %v", name, err)
	}
}

type errorPageData struct {
	Status  int
	Message string
}

// renderError writes the shared error page. Error detail is only surfaced
// outside production.
func (s *Server) renderError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil && !s.Config.IsProduction() {
		msg = err.Error()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if terr := pageTemplates.ExecuteTemplate(w, "error.gohtml", errorPageData{Status: status, Message: msg}); terr != nil {
		s.Logger.Errorf("renderError: Error executing template, err: %v", terr)
	}
}
