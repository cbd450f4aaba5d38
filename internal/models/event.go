package models

import "time"

// Event is one public activity event as returned by the GitHub events API.
// Events are immutable once fetched; Payload is opaque to everything except
// the formatter.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	Actor     Actor          `json:"actor"`
	Repo      Repo           `json:"repo"`
	Payload   map[string]any `json:"payload"`
}

type Actor struct {
	Login        string `json:"login"`
	DisplayLogin string `json:"display_login,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

type Repo struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
