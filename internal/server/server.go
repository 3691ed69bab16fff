// Package server exposes the query pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wealth-query-agent/internal/jsonx"
	"github.com/wealth-query-agent/internal/query"
	"github.com/wealth-query-agent/internal/sanitize"
	"github.com/wealth-query-agent/internal/store"
	"go.uber.org/zap"
)

const (
	defaultUserID   = "default_user"
	maxRequestBytes = 64 << 10
)

// Processor answers one natural-language query
type Processor interface {
	Process(ctx context.Context, query string) query.Result
}

// QueryRequest is the body of POST /api/v1/query
type QueryRequest struct {
	Query  string `json:"query" validate:"required,min=3,max=1000"`
	UserID string `json:"user_id" validate:"max=128"`
}

// QueryResponse is the client-facing shape of a pipeline result
type QueryResponse struct {
	Success      bool        `json:"success"`
	TextResponse string      `json:"text_response"`
	TableData    interface{} `json:"table_data,omitempty"`
	ChartData    interface{} `json:"chart_data,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	ErrorRef     string      `json:"error_ref,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server provides the HTTP endpoints
type Server struct {
	processor    Processor
	profiles     store.ProfileStore
	transactions store.TransactionStore
	validate     *validator.Validate
	logger       *zap.Logger
}

// New creates a Server. Either store may be nil.
func New(processor Processor, profiles store.ProfileStore, transactions store.TransactionStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		processor:    processor,
		profiles:     profiles,
		transactions: transactions,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger.Named("http"),
	}
}

// SetupRoutes configures the HTTP routes
func (s *Server) SetupRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	api.HandleFunc("/query/examples", s.handleExamples).Methods(http.MethodGet)
	api.HandleFunc("/query/stats", s.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	_ = r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, _ := route.GetPathTemplate()
		methods, _ := route.GetMethods()
		s.logger.Debug("Route registered", zap.String("path", pathTemplate), zap.Strings("methods", methods))
		return nil
	})
}

// Handler returns the routed handler wrapped with CORS and request logging
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	s.SetupRoutes(r)
	r.Use(s.logRequests)

	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(cors(r))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := jsonx.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid request body"})
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.UserID = strings.TrimSpace(req.UserID); req.UserID == "" {
		req.UserID = defaultUserID
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: validationMessage(err)})
		return
	}

	s.logger.Info("Received query", zap.String("user_id", req.UserID), zap.Int("length", len(req.Query)))

	res := s.processor.Process(r.Context(), req.Query)
	resp := QueryResponse{
		Success:      res.Success,
		TextResponse: res.TextResponse,
		ErrorMessage: sanitize.RedactUser(res.ErrorMessage, req.UserID),
		ErrorRef:     res.ErrorRef,
		RequestID:    res.RequestID,
	}
	if res.TableData != nil {
		resp.TableData = res.TableData
	}
	if res.ChartData != nil {
		resp.ChartData = res.ChartData
	}
	writeJSON(w, http.StatusOK, resp)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	switch fe := verrs[0]; {
	case fe.Field() == "Query" && (fe.Tag() == "required" || fe.Tag() == "min"):
		return "Query must be at least 3 characters long"
	case fe.Field() == "Query" && fe.Tag() == "max":
		return "Query must be at most 1000 characters long"
	default:
		return "Invalid " + strings.ToLower(fe.Field())
	}
}

// ExampleCategory groups sample questions for the client UI
type ExampleCategory struct {
	Category string   `json:"category"`
	Queries  []string `json:"queries"`
}

// Examples are the sample questions offered to users
var Examples = []ExampleCategory{
	{
		Category: "Portfolio Analysis",
		Queries: []string{
			"What are the top five portfolios of our wealth members?",
			"Show me the portfolio breakdown by investment type",
			"Which clients have the highest portfolio values?",
		},
	},
	{
		Category: "Relationship Manager Insights",
		Queries: []string{
			"Breakup of portfolio values by relationship manager",
			"Who are the top relationship managers?",
			"Show me performance by relationship manager",
		},
	},
	{
		Category: "Client Information",
		Queries: []string{
			"List all clients with conservative risk appetite",
			"Which clients hold the most equity investments?",
			"Show me clients from Mumbai",
		},
	},
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"examples":         Examples,
		"total_categories": len(Examples),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := store.ComputeStats(r.Context(), s.profiles, s.transactions)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Wealth query agent is running",
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := func(ping func(context.Context) error) string {
		if err := ping(ctx); err != nil {
			return "disconnected"
		}
		return "connected"
	}
	services := map[string]string{"api": "running", "profiles": "disconnected", "transactions": "disconnected"}
	if s.profiles != nil {
		services["profiles"] = status(s.profiles.Ping)
	}
	if s.transactions != nil {
		services["transactions"] = status(s.transactions.Ping)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"services": services,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonx.NewEncoder(w).Encode(v)
}
