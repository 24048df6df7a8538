package team

import "fmt"

// Team is a real football club inside the league snapshot.
type Team struct {
	ID           int
	Name         string
	Short        string
	StrengthHome int
	StrengthAway int
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id must be positive")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	return nil
}
