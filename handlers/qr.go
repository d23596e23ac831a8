package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/akinalp/puerta/pkg"
	"github.com/akinalp/puerta/pkg/codegen"
	"github.com/akinalp/puerta/pkg/qr"
)

// QRHandler, davet kodlarının QR PNG'lerini servis eder.
type QRHandler struct {
	encoder qr.Encoder
}

// NewQRHandler, constructor.
func NewQRHandler(encoder qr.Encoder) *QRHandler {
	return &QRHandler{encoder: encoder}
}

// Serve, GET /api/qr/{file}
//
// file "{code}.png" biçimindedir. Kod hex olduğundan path traversal
// mümkün değil, yine de uzunluğu doğrularız.
func (h *QRHandler) Serve(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	code := strings.TrimSuffix(file, ".png")
	if code == file || len(code) != codegen.CodeLength || !isHex(code) {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid qr file name")
		return
	}

	path := h.encoder.Path(code)
	if _, err := os.Stat(path); err != nil {
		pkg.ErrorWithMessage(w, http.StatusNotFound, "qr image not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
