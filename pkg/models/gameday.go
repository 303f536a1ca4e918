package models

import "time"

// gameDayZone is the zone US scoreboards file their game dates in
var gameDayZone = loadGameDayZone()

func loadGameDayZone() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// GameDay returns the US Eastern calendar date containing t, at midnight
func GameDay(t time.Time) time.Time {
	y, m, d := t.In(gameDayZone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, gameDayZone)
}

// GameDays is an inclusive range of scoreboard dates
type GameDays struct {
	From time.Time
	To   time.Time
}

// GameDaysAt returns the scoreboard dates to poll at now. withPrevious also
// covers the previous game day, so games that run past Eastern midnight stay
// on the board.
func GameDaysAt(now time.Time, withPrevious bool) GameDays {
	today := GameDay(now)
	days := GameDays{From: today, To: today}
	if withPrevious {
		days.From = today.AddDate(0, 0, -1)
	}
	return days
}

// Single reports whether the range covers exactly one date
func (d GameDays) Single() bool {
	return GameDay(d.From).Equal(GameDay(d.To))
}

// Contains reports whether t falls on one of the range's game days
func (d GameDays) Contains(t time.Time) bool {
	day := GameDay(t)
	return !day.Before(GameDay(d.From)) && !day.After(GameDay(d.To))
}
