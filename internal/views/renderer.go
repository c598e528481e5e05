package views

import (
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

type TemplateRenderer struct {
	templates *template.Template
}

func (tr *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return tr.templates.ExecuteTemplate(w, name, data)
}

func (tr *TemplateRenderer) Register(e *echo.Echo) {
	e.Renderer = tr
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	templates, err := getTemplates()
	if err != nil {
		return &TemplateRenderer{}, err
	}
	return &TemplateRenderer{templates}, nil
}

// OverviewList is one todo list as shown on the overview page.
type OverviewList struct {
	ListID    int64
	Name      string
	Items     int
	Completed int
}

type Overview struct {
	Connected       bool
	HasRefreshToken bool
	LoginURL        string
	LastUpdate      string
	LastError       string
	Lists           []OverviewList
}
