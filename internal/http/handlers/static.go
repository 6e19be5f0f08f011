package handlers

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

const shellFile = "index.html"

// StaticHandler serves the browser shell. Unknown non-API paths get the shell
// so client-side views survive a reload; unknown /api paths get JSON 404s.
type StaticHandler struct {
	files fs.FS
}

func NewStaticHandler(files fs.FS) *StaticHandler {
	return &StaticHandler{files: files}
}

func (h *StaticHandler) Fallback(ctx *gin.Context) {
	p := ctx.Request.URL.Path

	if p == "/api" || strings.HasPrefix(p, "/api/") {
		RespondNotFound(ctx, "Route not found")
		return
	}

	if ctx.Request.Method != http.MethodGet && ctx.Request.Method != http.MethodHead {
		RespondNotFound(ctx, "Route not found")
		return
	}

	if h.files == nil {
		RespondNotFound(ctx, "Not found")
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name != "" && name != shellFile {
		if info, err := fs.Stat(h.files, name); err == nil && !info.IsDir() {
			http.ServeFileFS(ctx.Writer, ctx.Request, h.files, name)
			return
		}
	}

	h.shell(ctx)
}

func (h *StaticHandler) shell(ctx *gin.Context) {
	b, err := fs.ReadFile(h.files, shellFile)
	if err != nil {
		RespondNotFound(ctx, "Not found")
		return
	}

	ctx.Header("Cache-Control", "no-cache")
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", b)
}
