package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"zhatCmd/internal/app/events"
	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/logging"
	"zhatCmd/internal/usecase/catalog"
	"zhatCmd/internal/usecase/custom"
	ttsusecase "zhatCmd/internal/usecase/tts"
)

type CommandCatalog interface {
	List(ctx context.Context) []catalog.CommandDTO
	Upsert(ctx context.Context, input catalog.CommandMutationDTO) (catalog.CommandDTO, bool, error)
	Delete(ctx context.Context, name string) (bool, error)
}

type TTSManager interface {
	ListVoices() []ttsusecase.VoiceOption
	CurrentVoice(ctx context.Context) ttsusecase.VoiceOption
	Enabled(ctx context.Context) bool
	SetVoice(ctx context.Context, code string) (ttsusecase.VoiceOption, error)
	SetEnabled(ctx context.Context, enabled bool) error
}

// TTSStatusReporter es el estado de la cola de reproducción.
type TTSStatusReporter interface {
	Status() events.TTSStatusDTO
}

type StreamManager interface {
	Search(ctx context.Context, p domain.Platform, query string) ([]domain.CategoryOption, error)
	SetCategory(ctx context.Context, name string, only domain.Platform) ([]domain.Platform, error)
	Snapshot(ctx context.Context) []domain.StreamStatus
}

type apiHandlers struct {
	logger  *log.Logger
	catalog CommandCatalog
	tts     TTSManager
	queue   TTSStatusReporter
	stream  StreamManager
}

func newAPIHandlers(cfg Config) *apiHandlers {
	return &apiHandlers{
		logger:  logging.Or(cfg.Logger),
		catalog: cfg.Catalog,
		tts:     cfg.TTS,
		stream:  cfg.Stream,
	}
}

func (a *apiHandlers) register(mux *http.ServeMux) {
	if a.catalog != nil {
		mux.HandleFunc("GET /api/commands", a.handleCommandList)
		mux.HandleFunc("POST /api/commands", a.handleCommandUpsert)
		mux.HandleFunc("DELETE /api/commands/{name}", a.handleCommandDelete)
	}
	if a.tts != nil {
		mux.HandleFunc("GET /api/tts/status", a.handleTTSStatus)
		mux.HandleFunc("POST /api/tts/settings", a.handleTTSUpdate)
	}
	if a.stream != nil {
		mux.HandleFunc("GET /api/stream/status", a.handleStreamStatus)
		mux.HandleFunc("GET /api/categories/search", a.handleCategorySearch)
		mux.HandleFunc("POST /api/categories/update", a.handleCategoryUpdate)
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
}

func (a *apiHandlers) handleCommandList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.List(r.Context()))
}

func (a *apiHandlers) handleCommandUpsert(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req catalog.CommandMutationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	dto, created, err := a.catalog.Upsert(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, lo.Ternary(created, http.StatusCreated, http.StatusOK), dto)
}

func (a *apiHandlers) handleCommandDelete(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	deleted, err := a.catalog.Delete(r.Context(), name)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, custom.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor traduce los errores del manager de comandos a códigos HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, custom.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, custom.ErrExists), errors.Is(err, custom.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, custom.ErrInvalidName),
		errors.Is(err, custom.ErrEmptyResponse),
		errors.Is(err, custom.ErrUnknownPlatform),
		errors.Is(err, custom.ErrUnknownRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type ttsVoiceResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type ttsStatusResponse struct {
	Enabled    bool                 `json:"enabled"`
	Voice      string               `json:"voice"`
	VoiceLabel string               `json:"voice_label"`
	Voices     []ttsVoiceResponse   `json:"voices"`
	Queue      *events.TTSStatusDTO `json:"queue,omitempty"`
}

type ttsUpdateRequest struct {
	Voice   string `json:"voice"`
	Enabled *bool  `json:"enabled"`
}

func (a *apiHandlers) ttsStatus(ctx context.Context) ttsStatusResponse {
	current := a.tts.CurrentVoice(ctx)
	status := ttsStatusResponse{
		Enabled:    a.tts.Enabled(ctx),
		Voice:      current.Code,
		VoiceLabel: current.Label,
		Voices: lo.Map(a.tts.ListVoices(), func(v ttsusecase.VoiceOption, _ int) ttsVoiceResponse {
			return ttsVoiceResponse{Code: v.Code, Label: v.Label}
		}),
	}
	if a.queue != nil {
		q := a.queue.Status()
		status.Queue = &q
	}
	return status
}

func (a *apiHandlers) handleTTSStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.ttsStatus(r.Context()))
}

func (a *apiHandlers) handleTTSUpdate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req ttsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if strings.TrimSpace(req.Voice) != "" {
		if _, err := a.tts.SetVoice(r.Context(), req.Voice); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.Enabled != nil {
		if err := a.tts.SetEnabled(r.Context(), *req.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, a.ttsStatus(r.Context()))
}

func (a *apiHandlers) handleStreamStatus(w http.ResponseWriter, r *http.Request) {
	statuses := lo.Map(a.stream.Snapshot(r.Context()), func(s domain.StreamStatus, _ int) events.StreamStatusDTO {
		return events.NewStreamStatusDTO(s)
	})
	writeJSON(w, http.StatusOK, statuses)
}

type categoryOptionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a *apiHandlers) handleCategorySearch(w http.ResponseWriter, r *http.Request) {
	platform := parsePlatformParam(r.URL.Query().Get("platform"))
	if platform == "" {
		writeError(w, http.StatusBadRequest, "invalid platform")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	options, err := a.stream.Search(r.Context(), platform, query)
	if err != nil {
		a.logger.Warn("category search failed", "platform", platform, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(options, func(o domain.CategoryOption, _ int) categoryOptionResponse {
		return categoryOptionResponse{ID: o.ID, Name: o.Name}
	}))
}

type categoryUpdateRequest struct {
	Platform string `json:"platform"`
	Name     string `json:"name"`
}

type categoryUpdateResponse struct {
	Updated []domain.Platform `json:"updated"`
}

func (a *apiHandlers) handleCategoryUpdate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req categoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	var only domain.Platform
	if strings.TrimSpace(req.Platform) != "" {
		if only = parsePlatformParam(req.Platform); only == "" {
			writeError(w, http.StatusBadRequest, "invalid platform")
			return
		}
	}

	updated, err := a.stream.SetCategory(r.Context(), name, only)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrCategoryNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, categoryUpdateResponse{Updated: updated})
}

func parsePlatformParam(p string) domain.Platform {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case string(domain.PlatformTwitch):
		return domain.PlatformTwitch
	case string(domain.PlatformKick):
		return domain.PlatformKick
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
