package httpapi

import (
	"time"

	"github.com/fplstack/insights/internal/domain/gameweek"
	"github.com/fplstack/insights/internal/domain/player"
	"github.com/fplstack/insights/internal/domain/team"
	"github.com/fplstack/insights/internal/usecase"
)

type playerDTO struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	WebName       string   `json:"webName"`
	TeamID        int      `json:"teamId"`
	Team          string   `json:"team"`
	TeamShort     string   `json:"teamShort"`
	Position      string   `json:"position"`
	Price         float64  `json:"price"`
	Points        int      `json:"points"`
	Form          *float64 `json:"form"`
	PointsPerGame *float64 `json:"pointsPerGame"`
	Ownership     *float64 `json:"ownership"`
	Status        string   `json:"status"`
	News          string   `json:"news,omitempty"`
	Minutes       int      `json:"minutes"`
	Goals         int      `json:"goals"`
	Assists       int      `json:"assists"`
	CleanSheets   int      `json:"cleanSheets"`
	Bonus         int      `json:"bonus"`
}

type teamDTO struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Short        string `json:"short"`
	StrengthHome int    `json:"strengthHome"`
	StrengthAway int    `json:"strengthAway"`
}

type gameweekDTO struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	IsCurrent  bool      `json:"isCurrent"`
	IsNext     bool      `json:"isNext"`
	IsPrevious bool      `json:"isPrevious"`
	Finished   bool      `json:"finished"`
	Deadline   time.Time `json:"deadline"`
}

type filterResultDTO struct {
	Players []playerDTO           `json:"players"`
	Summary usecase.FilterSummary `json:"summary"`
}

type playerMatchDTO struct {
	Player playerDTO `json:"player"`
	Score  int       `json:"score"`
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		ID:            p.ID,
		Name:          p.Name,
		WebName:       p.WebName,
		TeamID:        p.TeamID,
		Team:          p.TeamName,
		TeamShort:     p.TeamShort,
		Position:      string(p.Position),
		Price:         p.Price(),
		Points:        p.Points,
		Form:          ratingToDTO(p.Form),
		PointsPerGame: ratingToDTO(p.PointsPerGame),
		Ownership:     ratingToDTO(p.Ownership),
		Status:        string(p.Status),
		News:          p.News,
		Minutes:       p.Minutes,
		Goals:         p.Goals,
		Assists:       p.Assists,
		CleanSheets:   p.CleanSheets,
		Bonus:         p.Bonus,
	}
}

// ratingToDTO keeps the known/unknown distinction on the wire: unknown
// metrics serialize as null, never as a fake zero.
func ratingToDTO(r player.Rating) *float64 {
	v, known := r.Get()
	if !known {
		return nil
	}
	return &v
}

func playersToDTO(players []player.Player) []playerDTO {
	out := make([]playerDTO, 0, len(players))
	for _, p := range players {
		out = append(out, playerToDTO(p))
	}
	return out
}

func teamToDTO(t team.Team) teamDTO {
	return teamDTO{
		ID:           t.ID,
		Name:         t.Name,
		Short:        t.Short,
		StrengthHome: t.StrengthHome,
		StrengthAway: t.StrengthAway,
	}
}

func gameweekToDTO(gw gameweek.Gameweek) gameweekDTO {
	return gameweekDTO{
		ID:         gw.ID,
		Name:       gw.Name,
		IsCurrent:  gw.IsCurrent,
		IsNext:     gw.IsNext,
		IsPrevious: gw.IsPrevious,
		Finished:   gw.Finished,
		Deadline:   gw.Deadline,
	}
}

func filterResultToDTO(result usecase.FilterResult) filterResultDTO {
	return filterResultDTO{
		Players: playersToDTO(result.Players),
		Summary: result.Summary,
	}
}

func matchesToDTO(matches []usecase.PlayerMatch) []playerMatchDTO {
	out := make([]playerMatchDTO, 0, len(matches))
	for _, m := range matches {
		out = append(out, playerMatchDTO{Player: playerToDTO(m.Player), Score: m.Score})
	}
	return out
}
