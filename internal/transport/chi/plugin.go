package chi

import (
	"bytes"
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	gen "github.com/kailas-cloud/chatmaps/internal/transport/generated"
)

// hostPlaceholder is replaced with the base URL the client used to reach the server.
const hostPlaceholder = "PLUGIN_HOSTNAME"

//go:embed plugin/ai-plugin.json plugin/legal.txt plugin/logo.png
var pluginFS embed.FS

// mountPlugin serves the chat-plugin manifest, the OpenAPI document, the legal notice and the logo.
func mountPlugin(r chi.Router) {
	manifest := mustRead("plugin/ai-plugin.json")
	legal := mustRead("plugin/legal.txt")
	logo := mustRead("plugin/logo.png")

	r.Get("/.well-known/ai-plugin.json", hostTemplate(manifest, "text/json"))
	r.Get("/openapi.yaml", hostTemplate(gen.Spec, "text/yaml"))
	r.Get("/legal", staticFile(legal, "text/plain; charset=utf-8"))
	r.Get("/logo.png", staticFile(logo, "image/png"))
}

// hostTemplate serves body with every placeholder replaced by http://{Host}.
func hostTemplate(body []byte, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := bytes.ReplaceAll(body, []byte(hostPlaceholder), []byte("http://"+r.Host))
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(out)
	}
}

func staticFile(body []byte, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}
}

func mustRead(name string) []byte {
	b, err := pluginFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return b
}
