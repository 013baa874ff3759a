package domain

import "time"

// Option is a selectable answer for a quiz question. Picking it contributes
// its tags to the user's preference profile.
type Option struct {
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
}

// Question is one step of the quiz. Options are presented in order and the
// user picks exactly one.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Game is a candidate item for recommendation. Name, AppID and StoreURL are
// display metadata; only Tags participate in scoring.
type Game struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	AppID    int      `json:"appId,omitempty"`
	StoreURL string   `json:"storeUrl,omitempty"`
	Tags     []string `json:"tags"`
}

// Catalog bundles the ordered question list and the game pool it feeds.
// Both collections arrive already parsed and validated by a loader.
type Catalog struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
	Games     []Game     `json:"games"`
}

// ScoredGame pairs a game with its match score (0-100). MatchingTags lists
// the user's tags found on the game, sorted, for result display.
type ScoredGame struct {
	Game         Game     `json:"game"`
	Score        float64  `json:"score"`
	MatchingTags []string `json:"matchingTags,omitempty"`
}

// Progress is a snapshot of one quiz session's observable state.
type Progress struct {
	SessionID      string    `json:"sessionId"`
	CatalogID      string    `json:"catalogId"`
	QuestionIndex  int       `json:"questionIndex"`
	TotalQuestions int       `json:"totalQuestions"`
	Tags           []string  `json:"tags"`
	Complete       bool      `json:"complete"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
