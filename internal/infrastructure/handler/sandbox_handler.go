package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/logger"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/middleware"
)

const maxBuildBodyBytes = 1 << 20

// SandboxHandler imitates the transaction-building service for offline use.
// The cborHex it returns is a digest of the request, not a real transaction.
type SandboxHandler struct {
	logger logger.Logger
}

// NewSandboxHandler creates a new sandbox handler
func NewSandboxHandler(log logger.Logger) *SandboxHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &SandboxHandler{logger: log}
}

// NewRouter wires the sandbox routes behind the request ID and logging middleware
func NewRouter(h *SandboxHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware, middleware.LoggingMiddleware(h.logger))
	h.RegisterRoutes(router)
	return router
}

// BuildTransaction handles a build request
func (h *SandboxHandler) BuildTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if r.Header.Get("x-api-key") == "" {
		h.logger.Warn("Missing API key", map[string]interface{}{
			"request_id": requestID,
		})
		sendErrorResponse(w, h.logger, "Unauthorized",
			"The x-api-key header is required", http.StatusUnauthorized, requestID)
		return
	}

	var req BuildTransactionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBuildBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	if req.ChangeAddress == "" {
		sendErrorResponse(w, h.logger, "Invalid change address",
			"changeAddress must not be empty", http.StatusBadRequest, requestID)
		return
	}

	if len(req.Outputs) == 0 {
		sendErrorResponse(w, h.logger, "Invalid outputs",
			"At least one output is required", http.StatusBadRequest, requestID)
		return
	}

	for _, o := range req.Outputs {
		if o.Address == "" {
			sendErrorResponse(w, h.logger, "Invalid output address",
				"Every output needs an address", http.StatusBadRequest, requestID)
			return
		}
	}

	// Re-encoding the decoded request makes the digest independent of formatting
	canonical, err := json.Marshal(req)
	if err != nil {
		sendErrorResponse(w, h.logger, "Internal server error",
			"The request could not be encoded", http.StatusInternalServerError, requestID)
		return
	}
	digest := sha256.Sum256(canonical)

	h.logger.Info("Sandbox transaction built", map[string]interface{}{
		"request_id": requestID,
		"outputs":    len(req.Outputs),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BuildTransactionResponse{
		Type:    "Tx",
		CborHex: hex.EncodeToString(digest[:]),
	})
}

// Health handles the health check
func (h *SandboxHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// RegisterRoutes registers the sandbox routes
func (h *SandboxHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transactions/build", h.BuildTransaction).Methods(http.MethodPost)
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	h.logger.Debug("Sandbox routes registered", map[string]interface{}{
		"routes": []string{
			"POST /transactions/build",
			"GET /health",
		},
	})
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	}

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	json.NewEncoder(w).Encode(resp)
}
