package statrefresh

import (
	"time"

	"github.com/XavierBriggs/Hermes/internal/broker"
	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

// Table selects the stat refresher of each league
type Table map[models.League]contracts.StatRefresher

// NewTable builds the lookup table for the given leagues. A league with a stats
// service URL gets an HTTP refresher; otherwise it falls back to the Kafka writer
// when one is given. Leagues with stat refresh turned off get no entry.
func NewTable(modules []contracts.LeagueModule, urls map[models.League]string, writer broker.MessageWriter, timeout time.Duration) Table {
	table := make(Table)

	for _, module := range modules {
		if !module.ShouldRefreshStats() {
			continue
		}

		league := module.GetLeague()
		switch {
		case urls[league] != "":
			table[league] = NewHTTPRefresher(league, urls[league], timeout)
		case writer != nil:
			table[league] = NewKafkaRefresher(league, writer)
		}
	}

	return table
}

// Leagues returns the leagues that have a refresher, in canonical order
func (t Table) Leagues() []models.League {
	var leagues []models.League
	for _, league := range models.AllLeagues() {
		if _, ok := t[league]; ok {
			leagues = append(leagues, league)
		}
	}
	return leagues
}
