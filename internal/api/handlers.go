package api

import (
    "encoding/json"
    "errors"
    "net/http"
    "strings"

    "github.com/rs/zerolog/log"

    "github.com/hyperifyio/policyscan/internal/app"
    "github.com/hyperifyio/policyscan/internal/policy"
    "github.com/hyperifyio/policyscan/internal/score"
)

const maxBodyBytes = 1 << 20

type urlRequest struct {
    URL   string `json:"url"`
    Force bool   `json:"force,omitempty"`
}

type analysisRequest struct {
    URL      string          `json:"url"`
    Analysis *score.Analysis `json:"analysis"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    if err := json.NewEncoder(w).Encode(v); err != nil {
        log.Debug().Err(err).Msg("write response")
    }
}

func writeError(w http.ResponseWriter, status int, msg string) {
    writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
    switch {
    case errors.Is(err, app.ErrUnsupportedPage):
        writeError(w, http.StatusBadRequest, err.Error())
    case errors.Is(err, policy.ErrNoContentFound), errors.Is(err, policy.ErrInsufficientContent):
        writeError(w, http.StatusUnprocessableEntity, err.Error())
    default:
        log.Warn().Err(err).Str("path", r.URL.Path).Msg("request failed")
        writeError(w, http.StatusBadGateway, err.Error())
    }
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
    r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
    if err := json.NewDecoder(r.Body).Decode(v); err != nil {
        writeError(w, http.StatusBadRequest, "invalid request body")
        return false
    }
    return true
}

func decodeURL(w http.ResponseWriter, r *http.Request) (urlRequest, bool) {
    var req urlRequest
    if !decode(w, r, &req) {
        return req, false
    }
    req.URL = strings.TrimSpace(req.URL)
    if req.URL == "" {
        writeError(w, http.StatusBadRequest, "url is required")
        return req, false
    }
    return req, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
    req, ok := decodeURL(w, r)
    if !ok {
        return
    }
    detected, err := s.svc.Check(r.Context(), req.URL)
    if err != nil {
        writeServiceError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]bool{"policyDetected": detected})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
    req, ok := decodeURL(w, r)
    if !ok {
        return
    }
    text, err := s.svc.Extract(r.Context(), req.URL)
    if err != nil {
        writeServiceError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]string{"content": text})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
    req, ok := decodeURL(w, r)
    if !ok {
        return
    }
    res, err := s.svc.Analyze(r.Context(), req.URL, req.Force)
    if err != nil {
        writeServiceError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "analysis": res.Analysis,
        "cached":   res.Cached,
        "grade":    res.Grade,
    })
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
    u := strings.TrimSpace(r.URL.Query().Get("url"))
    if u == "" {
        writeError(w, http.StatusBadRequest, "url is required")
        return
    }
    a, err := s.svc.CachedAnalysis(r.Context(), u)
    if err != nil {
        writeServiceError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]*score.Analysis{"analysis": a})
}

func (s *Server) handlePutAnalysis(w http.ResponseWriter, r *http.Request) {
    var req analysisRequest
    if !decode(w, r, &req) {
        return
    }
    if strings.TrimSpace(req.URL) == "" || req.Analysis == nil {
        writeError(w, http.StatusBadRequest, "url and analysis are required")
        return
    }
    if err := s.svc.CacheAnalysis(r.Context(), strings.TrimSpace(req.URL), req.Analysis); err != nil {
        writeServiceError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleIncrementStats(w http.ResponseWriter, r *http.Request) {
    if err := s.svc.IncrementAnalysisCount(r.Context()); err != nil {
        writeServiceError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
    snap, err := s.svc.Stats(r.Context())
    if err != nil {
        writeServiceError(w, r, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"stats": snap})
}
