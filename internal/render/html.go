// Package render turns recipes into HTML pages for the browser and styled
// text for the terminal.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"recipe-box/internal/domain/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

// FormValues echoes the add-recipe form back after a failed submission.
type FormValues struct {
	Name         string
	Category     string
	Area         string
	Image        string
	Ingredients  string
	Instructions string
}

// IndexData drives the search page.
type IndexData struct {
	Title        string
	Query        string
	Recipes      []entity.Recipe
	Empty        bool
	EmptyMessage string
	RemoteError  bool
	FormError    string
	Form         FormValues
}

// DetailData drives the single-recipe page.
type DetailData struct {
	Title   string
	Query   string
	Recipe  entity.Recipe
	BackURL string
}

// CardData is one search result together with the query that produced it.
type CardData struct {
	Recipe entity.Recipe
	Query  string
}

// HTML renders the server-side pages.
type HTML struct {
	tmpl *template.Template
}

// NewHTML parses the embedded templates. With proxyImages set, remote image
// URLs are rewritten to go through the /images thumbnail endpoint.
func NewHTML(proxyImages bool) (*HTML, error) {
	funcs := template.FuncMap{
		"thumb":     func(src string) string { return thumbURL(src, proxyImages) },
		"detailURL": DetailURL,
		"card":      func(r entity.Recipe, query string) CardData { return CardData{Recipe: r, Query: query} },
	}
	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &HTML{tmpl: tmpl}, nil
}

// Index writes the search page.
func (h *HTML) Index(w io.Writer, data IndexData) error {
	if data.Title == "" {
		data.Title = "Recipe Box"
	}
	return h.tmpl.ExecuteTemplate(w, "index", data)
}

// Detail writes the page of one recipe.
func (h *HTML) Detail(w io.Writer, data DetailData) error {
	if data.Title == "" {
		data.Title = data.Recipe.Name + " | Recipe Box"
	}
	if data.BackURL == "" {
		data.BackURL = BackURL(data.Query)
	}
	return h.tmpl.ExecuteTemplate(w, "detail", data)
}

// BackURL returns the search page for query, or the home page when query is blank.
func BackURL(query string) string {
	if strings.TrimSpace(query) == "" {
		return "/"
	}
	return "/?q=" + url.QueryEscape(query)
}

// DetailURL links to the page of recipe id and carries query along so the
// detail page can link back to the same results.
func DetailURL(id, query string) string {
	u := "/recipes/" + url.PathEscape(id)
	if q := strings.TrimSpace(query); q != "" {
		u += "?q=" + url.QueryEscape(q)
	}
	return u
}

// Placeholders are served directly; they are already the right size.
func thumbURL(src string, proxy bool) string {
	if !proxy || src == entity.CardPlaceholderImage || src == entity.DetailPlaceholderImage {
		return src
	}
	return "/images?url=" + url.QueryEscape(src)
}
