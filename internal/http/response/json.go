package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/concierge/internal/toast"
	"github.com/diagnosis/concierge/pkg/logger"
)

// Envelope wraps every successful answer with the session's pending toasts
// and the browser route to navigate to, if any.
type Envelope struct {
	Data     any           `json:"data"`
	Toasts   []toast.Toast `json:"toasts"`
	Redirect string        `json:"redirect,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
