package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	StatusScheduled  GameStatus = "scheduled"
	StatusInProgress GameStatus = "in_progress"
	StatusFinal      GameStatus = "final"
)

// Rank orders statuses so that a game only ever moves forward
func (s GameStatus) Rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusFinal:
		return 2
	default:
		return 0
	}
}

// ClassifyStatus derives a GameStatus from the provider's raw status fields.
// state is the coarse pre/in/post value, name the detailed status name.
func ClassifyStatus(state, name string) GameStatus {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "pre":
		return StatusScheduled
	case "in":
		return StatusInProgress
	case "post":
		return StatusFinal
	}

	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "STATUS_IN_PROGRESS", "STATUS_HALFTIME", "STATUS_END_PERIOD", "STATUS_DELAYED",
		"STATUS_RAIN_DELAY", "STATUS_OVERTIME", "STATUS_FIRST_HALF", "STATUS_SECOND_HALF",
		"IN_PROGRESS", "INPROGRESS", "LIVE":
		return StatusInProgress
	case "STATUS_FINAL", "STATUS_FINAL_OT", "STATUS_POSTPONED", "STATUS_CANCELED",
		"STATUS_FORFEIT", "STATUS_ABANDONED", "FINAL", "COMPLETE", "COMPLETED":
		return StatusFinal
	default:
		return StatusScheduled
	}
}

// RawTeam is one side of a provider game record
type RawTeam struct {
	ID           string
	Name         string
	Abbreviation string
	Color        string
	Logo         string
	Score        *int
}

// RawGame is a game record as returned by the score provider
type RawGame struct {
	ProviderID  string
	League      League
	StatusName  string
	StatusState string
	StartTime   time.Time
	Home        RawTeam
	Away        RawTeam
	Period      string
	Clock       string
	Detail      string
	Extra       map[string]interface{}
}

// TeamLine is one side of a game snapshot
type TeamLine struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Color        string `json:"color"`
	Logo         string `json:"logo,omitempty"`
	Score        *int   `json:"score"`
}

// Game is the normalized snapshot of a provider game
type Game struct {
	GameID     string                 `json:"game_id"`
	ProviderID string                 `json:"provider_id"`
	League     League                 `json:"league"`
	Status     GameStatus             `json:"status"`
	StartTime  time.Time              `json:"start_time"`
	HomeTeam   TeamLine               `json:"home_team"`
	AwayTeam   TeamLine               `json:"away_team"`
	Period     string                 `json:"period,omitempty"`
	Clock      string                 `json:"clock,omitempty"`
	Detail     string                 `json:"detail,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// CompositeGameID builds the snapshot key for a provider game
func CompositeGameID(league League, providerID string) string {
	return fmt.Sprintf("%s-%s", league.Key(), providerID)
}

// NewGame normalizes a provider record into a Game snapshot
func NewGame(raw RawGame, defaultColor string) Game {
	status := ClassifyStatus(raw.StatusState, raw.StatusName)

	game := Game{
		GameID:     CompositeGameID(raw.League, raw.ProviderID),
		ProviderID: raw.ProviderID,
		League:     raw.League,
		Status:     status,
		StartTime:  raw.StartTime.UTC(),
		HomeTeam:   newTeamLine(raw.Home, defaultColor),
		AwayTeam:   newTeamLine(raw.Away, defaultColor),
		Period:     raw.Period,
		Clock:      raw.Clock,
		Detail:     raw.Detail,
		Metadata:   raw.Extra,
	}

	// Providers report 0-0 before tip-off; scores are meaningless until the game starts
	if status == StatusScheduled {
		game.HomeTeam.Score = nil
		game.AwayTeam.Score = nil
	}

	return game
}

func newTeamLine(t RawTeam, defaultColor string) TeamLine {
	color := strings.TrimPrefix(strings.TrimSpace(t.Color), "#")
	if color == "" {
		color = strings.TrimPrefix(defaultColor, "#")
	}

	var score *int
	if t.Score != nil {
		v := *t.Score
		score = &v
	}

	return TeamLine{
		ID:           t.ID,
		Name:         t.Name,
		Abbreviation: t.Abbreviation,
		Color:        "#" + color,
		Logo:         t.Logo,
		Score:        score,
	}
}

// Equal reports whether two snapshots carry identical content
func (g Game) Equal(other Game) bool {
	return reflect.DeepEqual(g, other)
}

// ScoreLine renders a compact "AWY 7 - HOM 10" string for logs
func (g Game) ScoreLine() string {
	return fmt.Sprintf("%s %s - %s %s",
		g.AwayTeam.Abbreviation, scoreString(g.AwayTeam.Score),
		g.HomeTeam.Abbreviation, scoreString(g.HomeTeam.Score))
}

func scoreString(score *int) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *score)
}

// Clone returns a copy that does not share score pointers with g
func (g Game) Clone() Game {
	c := g
	c.HomeTeam.Score = cloneInt(g.HomeTeam.Score)
	c.AwayTeam.Score = cloneInt(g.AwayTeam.Score)
	if g.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(g.Metadata))
		for k, v := range g.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
