package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/search", handler.SearchPlayers)
	mux.HandleFunc("GET /v1/players/compare", handler.ComparePlayers)
	mux.HandleFunc("GET /v1/players/{playerID}/fixtures", handler.GetPlayerFixtures)
	mux.HandleFunc("GET /v1/players/{playerID}/history", handler.GetPlayerHistory)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}/ease", handler.GetTeamEase)
	mux.HandleFunc("GET /v1/gameweeks/current", handler.GetCurrentGameweek)
	mux.HandleFunc("GET /v1/gameweeks/blanks", handler.ListBlankGameweeks)
	mux.HandleFunc("GET /v1/gameweeks/doubles", handler.ListDoubleGameweeks)
}
