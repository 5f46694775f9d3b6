package api

import (
	"maps"
	"net/http"

	"github.com/seenimoa/stockscore/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config config.Config `json:"config"`
}

// handleGetConfig returns the running configuration with secrets removed.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ConfigResponse{Config: redact(s.cfg)},
	})
}

// handleGetConfigKeys returns the status of all sensitive API keys.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	keys := config.CheckAPIKeys(s.cfg)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    keys,
	})
}

// redact copies cfg without API keys. Maps are cloned so the copy can be
// serialized while the running config changes.
func redact(cfg *config.Config) config.Config {
	out := *cfg
	out.FX.APIKey = ""
	out.FX.FallbackRates = maps.Clone(cfg.FX.FallbackRates)
	out.API.CORSOrigins = append([]string(nil), cfg.API.CORSOrigins...)
	return out
}
