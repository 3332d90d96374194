package handlers

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes wires the admin configuration surface (spec.md §6) onto
// router's /api/v1 subrouter.
func RegisterRoutes(router *mux.Router, cfg *ConfigHandler, strat *StrategyHandler) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/config/application", cfg.GetApplicationConfig).Methods("GET")
	api.HandleFunc("/config/application", cfg.UpdateApplicationConfig).Methods("POST")
	api.HandleFunc("/config/application/audit", cfg.ListApplicationAudit).Methods("GET")
	api.HandleFunc("/config/application/cache/refresh", cfg.RefreshCache).Methods("POST")

	api.HandleFunc("/strategies", strat.ListStrategies).Methods("GET")
	api.HandleFunc("/strategies/{id}/config", strat.GetStrategyConfig).Methods("GET")
	api.HandleFunc("/strategies/{id}/config", strat.PutStrategyConfig).Methods("POST")
	api.HandleFunc("/strategies/{id}/config", strat.DeleteStrategyConfig).Methods("DELETE")
	api.HandleFunc("/strategies/{id}/config/{symbol}", strat.GetStrategySymbolConfig).Methods("GET")
	api.HandleFunc("/strategies/{id}/config/{symbol}", strat.PutStrategySymbolConfig).Methods("POST")
	api.HandleFunc("/strategies/{id}/config/{symbol}", strat.DeleteStrategySymbolConfig).Methods("DELETE")
	api.HandleFunc("/strategies/{id}/audit", strat.ListStrategyAudit).Methods("GET")
}
