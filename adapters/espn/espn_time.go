package espn

import (
	"strings"
	"time"
)

// ESPNTime unmarshals both full RFC3339 timestamps and the shorter
// "YYYY-MM-DDThh:mmZ" form the scoreboard endpoints return
type ESPNTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (t *ESPNTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}

	var parseErr error
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		parseErr = err
	}
	return parseErr
}
