package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/repositories"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 320

// HandleJoinQR renders a QR code pointing players at the session join URL.
func HandleJoinQR(repository repositories.Repository, publicBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionID"]
		if _, err := repository.GetSession(r.Context(), sessionID); err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get session: %v", err)
			http.Error(w, "Failed to get session", http.StatusInternalServerError)
			return
		}

		base := publicBaseURL
		if base == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
				scheme = proto
			}
			base = scheme + "://" + r.Host
		}

		png, err := qrcode.Encode(base+"/join/"+sessionID, qrcode.Medium, qrSize)
		if err != nil {
			log.Error("failed to encode QR code: %v", err)
			http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}
