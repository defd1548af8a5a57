package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/dvloznov/statement-recon/internal/api/middleware"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// HealthHandler reports service health.
type HealthHandler struct {
	tempDir string
	now     func() time.Time
}

// NewHealthHandler creates a health handler that checks tempDir is writable.
// An empty tempDir checks os.TempDir().
func NewHealthHandler(tempDir string) *HealthHandler {
	return &HealthHandler{tempDir: tempDir, now: time.Now}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"temp_directory":   h.tempWritable(),
		"memory_available": true,
	}

	status, code := "healthy", http.StatusOK
	for _, ok := range checks {
		if !ok {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	middleware.WriteJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"version":   Version,
		"checks":    checks,
	})
}

func (h *HealthHandler) tempWritable() bool {
	f, err := os.CreateTemp(h.tempDir, "health-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	return os.Remove(name) == nil
}
