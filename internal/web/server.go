package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/vbtc-network/arm/internal/logger"
	"github.com/vbtc-network/arm/internal/state"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes rebalance history and governance parameters over HTTP.
type WebServer struct {
	router *mux.Router
	port   string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/receipts", ws.handleGetReceipts).Methods("GET")
	api.HandleFunc("/receipts/latest", ws.handleGetLatestReceipt).Methods("GET")
	api.HandleFunc("/receipts/{id}", ws.handleGetReceipt).Methods("GET")
	api.HandleFunc("/params", ws.handleGetParams).Methods("GET")
	api.HandleFunc("/summary", ws.handleGetSummary).Methods("GET")

	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(ws.router)

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	var lastCycleTime *time.Time
	receipts, err := state.GetRecentReceipts(1)
	if err == nil && len(receipts) > 0 {
		lastCycleTime = &receipts[0].Timestamp
	}

	status := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		status = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "arm-autonomous-reserve-manager",
			"version": "1.0.0",
		},
		"reserve_status": map[string]interface{}{
			"database_healthy": dbHealthy,
			"last_cycle_time":  lastCycleTime,
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetReceipts returns paginated rebalance receipts
func (ws *WebServer) handleGetReceipts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	receipts, err := state.GetRecentReceipts(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve receipts")
		return
	}

	response := map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
		"limit":    limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetReceipt returns a specific rebalance receipt by ID
func (ws *WebServer) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idStr := vars["id"]

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid receipt ID")
		return
	}

	receipt, err := state.GetReceiptByID(id)
	if err != nil {
		webLogger.Error().Err(err).Int64("receiptId", id).Msg("Failed to get receipt")
		ws.writeErrorResponse(w, http.StatusNotFound, "Receipt not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, receipt)
}

// handleGetLatestReceipt returns the most recent rebalance receipt
func (ws *WebServer) handleGetLatestReceipt(w http.ResponseWriter, r *http.Request) {
	receipts, err := state.GetRecentReceipts(1)
	if err != nil || len(receipts) == 0 {
		webLogger.Error().Err(err).Msg("Failed to get latest receipt")
		ws.writeErrorResponse(w, http.StatusNotFound, "No receipts found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, receipts[0])
}

// handleGetParams returns the active governance parameters
func (ws *WebServer) handleGetParams(w http.ResponseWriter, r *http.Request) {
	params, err := state.LoadActiveGovernanceParams()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get governance parameters")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve governance parameters")
		return
	}

	response := map[string]interface{}{
		"parameters": params,
		"timestamp":  time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetSummary returns aggregated rebalance statistics
func (ws *WebServer) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := state.GetReceiptSummary()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get receipt summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve summary")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
