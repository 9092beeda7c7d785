package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/pipeline"
	"github.com/vuongnp/tiktok-insight-service/internal/provider"
	"github.com/vuongnp/tiktok-insight-service/pkg/config"
	"github.com/vuongnp/tiktok-insight-service/pkg/errors"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
	"github.com/vuongnp/tiktok-insight-service/pkg/retry"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Service pipeline.Service
	Config  *config.Config
	Logger  logger.Logger
}

// Handler exposes the pipeline over HTTP. One handler method per listing
// target; they differ only in how the request names the query.
type Handler struct {
	service  pipeline.Service
	config   *config.Config
	logger   logger.Logger
	validate *validator.Validate
}

func NewHandler(opts Opts) *Handler {
	return &Handler{
		service:  opts.Service,
		config:   opts.Config,
		logger:   opts.Logger,
		validate: newValidator(),
	}
}

func (h *Handler) AnalyzeHashtag(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, domain.QueryHashtag, func(req *analysisRequest) string { return req.Hashtag })
}

func (h *Handler) AnalyzeAccount(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, domain.QueryAccount, func(req *analysisRequest) string { return req.Username })
}

func (h *Handler) AnalyzeSearch(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, domain.QuerySearch, func(req *analysisRequest) string { return req.Keyword })
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, kind domain.QueryKind, target func(*analysisRequest) string) {
	requestID := RequestIDFrom(r.Context())
	log := h.logger.With("request_id", requestID, "kind", string(kind))

	var body analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, requestID, http.StatusBadRequest, "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		h.writeError(w, requestID, http.StatusBadRequest, validationMessage(err))
		return
	}
	value := strings.TrimSpace(target(&body))
	if value == "" {
		h.writeError(w, requestID, http.StatusBadRequest, fmt.Sprintf("%s target is required", kind))
		return
	}

	req := pipeline.Request{
		Query:           domain.Query{Kind: kind, Value: value},
		ItemCount:       body.PostsCount,
		CommentsPerItem: body.CommentsPerPost,
		Instructions:    body.Prompt,
		Model:           body.Model,
		MaxQuoteLength:  body.MaxQuoteLength,
	}

	// Retry only runs that produced nothing because the provider throttled
	// us; everything else (including partial reports) goes straight through.
	var report *domain.Report
	err := retry.Do(r.Context(), log, "analysis run", func() error {
		var runErr error
		report, runErr = h.service.Run(r.Context(), req)
		if runErr != nil && !provider.IsRateLimited(runErr) {
			return retry.Permanent(runErr)
		}
		return runErr
	}, retry.DefaultConfig())
	if err != nil {
		log.Error("Analysis run failed", "error", err)
		h.writeError(w, requestID, statusFor(err), errors.GetMessage(err))
		return
	}

	log.Info("Analysis run succeeded",
		"items", report.Metadata.TotalItemsProcessed, "findings", report.Metadata.TotalFindings)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, requestID string, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, RequestID: requestID})
}

// statusFor maps the pipeline failure taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case provider.IsRateLimited(err):
		return http.StatusTooManyRequests
	case errors.IsCollection(err):
		return http.StatusBadGateway
	case errors.IsAnalysis(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "request validation failed"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
