package mcp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/service"
)

// endpoints is reported by /stats and by the 404 handler.
var endpoints = []string{
	"GET /health",
	"POST /search_tours",
	"POST /quick_search",
	"GET /get_countries",
	"GET /get_departures",
	"GET /stats",
	"POST /api/v1/command",
	"GET /ws/v1/search",
}

// Handlers serves the HTTP API on top of a TourService.
type Handlers struct {
	log     *zap.Logger
	svc     *service.TourService
	version string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *zap.Logger, svc *service.TourService, version string) *Handlers {
	return &Handlers{
		log:     logger.Named("mcp_handlers"),
		svc:     svc,
		version: version,
	}
}

// RegisterRoutes mounts the plain endpoints and the command API on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealthCheck)
	r.Get("/healthz", h.HandleHealthCheck)

	r.Post("/search_tours", h.HandleSearchTours)
	r.Post("/quick_search", h.HandleQuickSearch)
	r.Get("/get_countries", h.HandleCountries)
	r.Get("/get_departures", h.HandleDepartures)
	r.Get("/stats", h.HandleStats)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/command", h.HandleCommand)
	})
}

func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
	})
}

// HandleNotFound lists what the server does serve.
func (h *Handlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:              "Endpoint not found",
		AvailableEndpoints: endpoints,
	})
}

// HandleSearchTours runs a structured search.
func (h *Handlers) HandleSearchTours(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	if err := decodeBody(r, &params); err != nil {
		h.plainError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := params.Request()
	if err != nil {
		h.plainError(w, http.StatusBadRequest, err.Error())
		return
	}

	tours, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.plainError(w, statusFor(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, ToursResponse{Success: true, Tours: tours, Count: len(tours)})
}

// HandleQuickSearch translates a free-text query and searches with it.
func (h *Handlers) HandleQuickSearch(w http.ResponseWriter, r *http.Request) {
	var params QuickSearchParams
	if err := decodeBody(r, &params); err != nil {
		h.plainError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(params.Query) == "" {
		h.plainError(w, http.StatusBadRequest, "Query is required")
		return
	}

	res, err := h.svc.QuickSearch(r.Context(), params.Query)
	if err != nil {
		h.plainError(w, statusFor(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, ToursResponse{
		Success:      true,
		Tours:        res.Tours,
		Count:        len(res.Tours),
		Query:        res.Query,
		ParsedParams: &res.Request,
	})
}

func (h *Handlers) HandleCountries(w http.ResponseWriter, r *http.Request) {
	countries := h.svc.Countries()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"countries": countries,
		"count":     len(countries),
	})
}

func (h *Handlers) HandleDepartures(w http.ResponseWriter, r *http.Request) {
	departures := h.svc.Departures()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"departures": departures,
		"count":      len(departures),
	})
}

func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":              true,
		"server":               "tourscout",
		"version":              h.version,
		"endpoints":            endpoints,
		"supported_countries":  len(schemas.Countries()),
		"supported_departures": len(schemas.Departures()),
		"stats":                h.svc.Stats(),
		"timestamp":            time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleCommand is the entry point for command-style clients.
func (h *Handlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	h.log.Info("Received command", zap.String("command", req.Command))

	switch strings.ToLower(req.Command) {
	case "search_tours", "search":
		h.handleSearchCommand(w, r, req.Params)
	case "quick_search":
		h.handleQuickSearchCommand(w, r, req.Params)
	case "compare_departures", "compare":
		h.handleCompareCommand(w, r, req.Params)
	case "get_countries":
		h.respondWithSuccess(w, http.StatusOK, h.svc.Countries())
	case "get_departures":
		h.respondWithSuccess(w, http.StatusOK, h.svc.Departures())
	case "recent_searches":
		h.handleRecentSearchesCommand(w, r, req.Params)
	case "stats":
		h.respondWithSuccess(w, http.StatusOK, h.svc.Stats())
	case "ping":
		h.respondWithSuccess(w, http.StatusOK, map[string]string{"message": "pong"})
	default:
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (h *Handlers) handleSearchCommand(w http.ResponseWriter, r *http.Request, paramsMap map[string]interface{}) {
	params, err := mapToStruct[SearchParams](paramsMap)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid parameters for search_tours: %v", err))
		return
	}
	req, err := params.Request()
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	tours, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.respondWithError(w, statusFor(err), err.Error())
		return
	}
	h.respondWithSuccess(w, http.StatusOK, map[string]interface{}{
		"count": len(tours),
		"tours": tours,
	})
}

func (h *Handlers) handleQuickSearchCommand(w http.ResponseWriter, r *http.Request, paramsMap map[string]interface{}) {
	params, err := mapToStruct[QuickSearchParams](paramsMap)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid parameters for quick_search: %v", err))
		return
	}
	if strings.TrimSpace(params.Query) == "" {
		h.respondWithError(w, http.StatusBadRequest, "Query parameter is required.")
		return
	}
	res, err := h.svc.QuickSearch(r.Context(), params.Query)
	if err != nil {
		h.respondWithError(w, statusFor(err), err.Error())
		return
	}
	h.respondWithSuccess(w, http.StatusOK, res)
}

func (h *Handlers) handleCompareCommand(w http.ResponseWriter, r *http.Request, paramsMap map[string]interface{}) {
	params, err := mapToStruct[CompareParams](paramsMap)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid parameters for compare_departures: %v", err))
		return
	}
	req, departures, err := params.Request()
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := h.svc.Compare(r.Context(), req, departures)
	if err != nil {
		h.respondWithError(w, statusFor(err), err.Error())
		return
	}
	h.respondWithSuccess(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

func (h *Handlers) handleRecentSearchesCommand(w http.ResponseWriter, r *http.Request, paramsMap map[string]interface{}) {
	params, err := mapToStruct[RecentSearchesParams](paramsMap)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid parameters for recent_searches: %v", err))
		return
	}
	records, err := h.svc.RecentSearches(r.Context(), params.Limit)
	if err != nil {
		if !errors.Is(err, service.ErrHistoryDisabled) {
			h.log.Error("Failed to list recent searches", zap.Error(err))
		}
		h.respondWithError(w, statusFor(err), err.Error())
		return
	}
	h.respondWithSuccess(w, http.StatusOK, map[string]interface{}{
		"count":    len(records),
		"searches": records,
	})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case schemas.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrHistoryDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("no JSON data provided")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("no JSON data provided")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// mapToStruct converts loosely typed params into T through a JSON round trip.
func mapToStruct[T any](m map[string]interface{}) (T, error) {
	var result T
	if m == nil {
		return result, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return result, err
	}
	err = json.Unmarshal(data, &result)
	return result, err
}

func (h *Handlers) plainError(w http.ResponseWriter, statusCode int, message string) {
	if statusCode >= http.StatusInternalServerError {
		h.log.Error("Request failed", zap.Int("status", statusCode), zap.String("error", message))
	}
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}

func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, CommandResponse{Status: "error", Error: message})
}

func (h *Handlers) respondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	h.writeJSON(w, statusCode, CommandResponse{Status: "success", Data: data})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
