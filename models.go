// this file defines the data structures to be used throughout
package main

import "time"

// Station is a single playable radio stream as returned by the
// directory service. Identity is the directory UUID; the resolved
// stream URL is additionally kept unique within a fetched list.
type Station struct {
	ID        string  `json:"stationuuid"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	State     string  `json:"state,omitempty"`
	StreamURL string  `json:"url_resolved"`
	Favicon   string  `json:"favicon,omitempty"`
	Tags      string  `json:"tags,omitempty"`
	Language  string  `json:"language,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// HistoryEntry records one playback of a station. Re-playing a station
// moves its entry to the front and refreshes PlayedAt.
type HistoryEntry struct {
	Station  Station   `json:"station"`
	PlayedAt time.Time `json:"played_at"`
}

type User struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	Password       string         `json:"password"`
	Favorites      []Station      `json:"favorites"`
	RecentlyPlayed []HistoryEntry `json:"recentlyPlayed"`
}

// Preferences are global, not scoped to a user.
type Preferences struct {
	Autoplay      bool `json:"autoplay"`
	DefaultVolume int  `json:"defaultVolume"`
}

type ContactMessage struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
