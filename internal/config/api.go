package config

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// ConfigAPI exposes the effective configuration over HTTP, read-only.
type ConfigAPI struct {
	cfg *Config
}

func NewConfigAPI(cfg *Config) *ConfigAPI {
	return &ConfigAPI{cfg: cfg}
}

// Register mounts the config routes on an existing router. OPTIONS is
// matched so the router's CORS middleware can answer preflights.
func (api *ConfigAPI) Register(r *mux.Router) {
	r.HandleFunc("/configure", api.getConfig).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/configure/", api.getConfig).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/configure/validate", api.validateConfig).Methods(http.MethodPost, http.MethodOptions)
}

func (api *ConfigAPI) getConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.safeConfigCopy())
}

func (api *ConfigAPI) validateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid config payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"valid": true, "message": "configuration is valid"})
}

func (api *ConfigAPI) safeConfigCopy() *Config {
	copyCfg := *api.cfg
	copyCfg.Server.AllowedOrigins = append([]string(nil), api.cfg.Server.AllowedOrigins...)
	if copyCfg.Reclaim.Token != "" {
		copyCfg.Reclaim.Token = "***"
	}
	return &copyCfg
}
