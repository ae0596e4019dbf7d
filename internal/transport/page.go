package transport

import (
	"embed"
	"html/template"
	"math"
	"time"

	"go-image-detector/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const pageTemplate = "index.html"

func loadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// pageView is what the index template renders.
type pageView struct {
	session.State
	// Preview is the data URL of the accepted image. It is built from an
	// image/* type and base64 data only.
	Preview        template.URL
	RefreshSeconds int
}

func newPageView(st session.State, progressInterval time.Duration) pageView {
	refresh := int(math.Ceil(progressInterval.Seconds()))
	if refresh < 1 {
		refresh = 1
	}
	return pageView{
		State:          st,
		Preview:        template.URL(st.PreviewURL),
		RefreshSeconds: refresh,
	}
}
