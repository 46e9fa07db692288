// Package types defines the REST API request and response shapes.
package types

import "time"

// PostResponse is one post as the dashboard renders it.
type PostResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Replies   int       `json:"replies"`
	Retweets  int       `json:"retweets"`
	Favorites int       `json:"favorites"`
	Bookmarks int       `json:"bookmarks"`
	Views     int       `json:"views"`
	// URL links to the post on the source platform.
	URL string `json:"url"`
}

// CheckResponse is the full dashboard payload for one handle. The
// classification fields and the current status/score come from independent
// subsystems and are reported side by side, never merged.
type CheckResponse struct {
	Handle         string         `json:"handle"`
	DisplayName    string         `json:"display_name"`
	AvatarURL      string         `json:"avatar_url"`
	Posts          []PostResponse `json:"posts"`
	NicestPost     PostResponse   `json:"nicest_post"`
	NaughtiestPost PostResponse   `json:"naughtiest_post"`
	Rating         string         `json:"rating"`
	Score          float64        `json:"score"`
	CurrentStatus  string         `json:"current_status"`
	CurrentScore   float64        `json:"current_score"`
}

// StatusRequest sets the stored status and score for a handle directly.
type StatusRequest struct {
	Handle string  `json:"handle"`
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

// SwipeRequest nudges the stored score by one swipe step.
type SwipeRequest struct {
	Handle    string `json:"handle"`
	Direction string `json:"direction"`
}

// StatusResponse reports the stored record after a write.
type StatusResponse struct {
	Handle string  `json:"handle"`
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

// ErrorResponse carries a short human-readable failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
