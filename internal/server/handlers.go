package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/genricoloni/playbadge/internal/cache"
	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/render"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const cacheHeader = "X-Playbadge-Cache"

// handleBadge serves the current session as a badge. Query parameters:
// theme, width (height is fixed; a malformed value keeps the default) and
// refresh=true to bypass the cache.
func (s *Server) handleBadge(format render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveBadge(w, r, format)
	}
}

func (s *Server) handleBadgeByFormat(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.serveBadge(w, r, format)
}

func (s *Server) serveBadge(w http.ResponseWriter, r *http.Request, format render.Format) {
	ctx := r.Context()
	q := r.URL.Query()

	cfg := domain.RenderConfig{Theme: q.Get("theme"), Width: s.opts.DefaultWidth}
	if cfg.Theme == "" {
		cfg.Theme = s.opts.DefaultTheme
	}
	if v := q.Get("width"); v != "" {
		if width, err := strconv.Atoi(v); err == nil {
			cfg.Width = width
		} else {
			s.logger.Debug("Ignoring malformed width", zap.String("width", v))
		}
	}
	cfg = cfg.Normalize()

	rec, err := s.sessions.Current(ctx)
	if err != nil {
		s.logger.Warn("Session lookup failed, rendering idle badge", zap.Error(err))
		rec = nil
	}

	key := cache.Key(string(format), cfg.Theme, cfg.Width, rec)
	refresh := strings.EqualFold(q.Get("refresh"), "true")

	if !refresh {
		if data, hit, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Warn("Cache read failed", zap.Error(err))
		} else if hit {
			s.writeBadge(w, format, data, "hit")
			return
		}
	}

	badge, err := s.renderer.Render(ctx, format, rec, cfg)
	if err != nil {
		code := domain.CodeOf(err)
		status := http.StatusInternalServerError
		if code == domain.CodeUnknownTheme || code == domain.CodeInvalidInput {
			status = http.StatusBadRequest
		}
		s.logger.Warn("Badge request failed",
			zap.String("format", string(format)),
			zap.String("code", string(code)),
			zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	// Degraded badges are not cached so the next request retries
	if !badge.Degraded() {
		if err := s.cache.Set(ctx, key, badge.Data, s.opts.CacheTTL); err != nil {
			s.logger.Warn("Cache write failed", zap.Error(err))
		}
	}

	s.logger.Info("Badge generated",
		zap.String("format", string(format)),
		zap.String("theme", cfg.Theme),
		zap.Int("width", cfg.Width),
		zap.String("kind", string(badge.Kind)),
		zap.Int("bytes", len(badge.Data)))
	s.writeBadge(w, format, badge.Data, "miss")
}

func (s *Server) writeBadge(w http.ResponseWriter, format render.Format, data []byte, cacheState string) {
	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set(cacheHeader, cacheState)
	if format == render.FormatPNG {
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("Writing badge failed", zap.Error(err))
	}
}

type sessionStatus struct {
	Title  string              `json:"title"`
	Type   string              `json:"type"`
	State  domain.PlayerStatus `json:"state"`
	Player string              `json:"player,omitempty"`
}

type statusResponse struct {
	Source         string         `json:"source"`
	CurrentSession *sessionStatus `json:"current_session"`
	History        int            `json:"history"`
	Cache          string         `json:"cache"`
	Themes         []string       `json:"themes"`
	Error          string         `json:"error,omitempty"`
}

// historian is implemented by providers that keep finished sessions.
type historian interface {
	History() []domain.SessionRecord
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Source: s.opts.Source,
		Cache:  s.opts.CacheBackend,
		Themes: s.opts.Themes,
	}

	rec, err := s.sessions.Current(r.Context())
	if err != nil {
		resp.Error = err.Error()
	} else if rec != nil {
		resp.CurrentSession = &sessionStatus{
			Title:  rec.Title,
			Type:   rec.Type,
			State:  rec.Status,
			Player: rec.Player,
		}
	}
	if h, ok := s.sessions.(historian); ok {
		resp.History = len(h.History())
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(r.Context()); err != nil {
		s.logger.Error("Cache clear failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": err.Error()})
		return
	}
	s.logger.Info("Badge cache cleared")
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Cache cleared"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Writing JSON failed", zap.Error(err))
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>playbadge</title></head>
<body style="background:#0d1117;color:#f0f6fc;font-family:sans-serif;max-width:800px;margin:30px auto">
<h1>playbadge</h1>
<p>Embed <code>/api/now-playing-svg</code> or <code>/api/now-playing-png</code>; both accept <code>theme</code> and <code>width</code>.</p>
{{range .}}<h2>{{.}}</h2>
<p><img src="/api/now-playing-svg?theme={{.}}" alt="{{.}} svg"></p>
<p><img src="/api/now-playing-png?theme={{.}}" alt="{{.}} png"></p>
{{end}}</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.opts.Themes); err != nil {
		s.logger.Debug("Writing index failed", zap.Error(err))
	}
}
