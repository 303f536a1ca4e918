package espn

// API response structures matching the ESPN site scoreboard JSON format

type scoreboardResponse struct {
	Events []event `json:"events"`
}

type event struct {
	ID           string        `json:"id"`
	Date         ESPNTime      `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Competitions []competition `json:"competitions"`
	Status       status        `json:"status"`
}

type competition struct {
	ID          string       `json:"id"`
	Date        ESPNTime     `json:"date"`
	Competitors []competitor `json:"competitors"`
	Venue       *venue       `json:"venue,omitempty"`
	Broadcasts  []broadcast  `json:"broadcasts,omitempty"`
	Status      *status      `json:"status,omitempty"`
}

type competitor struct {
	ID       string `json:"id"`
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     team   `json:"team"`
}

type team struct {
	ID             string `json:"id"`
	Location       string `json:"location"`
	Name           string `json:"name"`
	Abbreviation   string `json:"abbreviation"`
	DisplayName    string `json:"displayName"`
	Color          string `json:"color"`
	AlternateColor string `json:"alternateColor"`
	Logo           string `json:"logo"`
}

type status struct {
	Clock        float64    `json:"clock"`
	DisplayClock string     `json:"displayClock"`
	Period       int        `json:"period"`
	Type         statusType `json:"type"`
}

type statusType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
	ShortDetail string `json:"shortDetail"`
}

type venue struct {
	FullName string `json:"fullName"`
}

type broadcast struct {
	Market string   `json:"market"`
	Names  []string `json:"names"`
}
