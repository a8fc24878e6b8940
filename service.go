// this file implements the session, favorites and history logic
package main

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const historyLimit = 20

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("this email is already registered")
)

// Credentials isolates the password check so a hash-based scheme can
// replace plain equality without touching call sites.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) Matches(u User) bool {
	return u.Email == c.Email && u.Password == c.Password
}

type Service interface {
	Register(username, email, password string) (*User, error)
	Login(email, password string) (*User, error)
	Logout()
	CurrentUser() *User
	UpdateProfile(username, email, newPassword string) error
	ToggleFavorite(station Station) bool
	Favorites() []Station
	RecordHistory(station Station)
	History() []HistoryEntry
	Preferences() Preferences
	SavePreferences(prefs Preferences)
	SetDefaultVolume(percent int)
	SubmitContact(name, email, message string) error
	close()
}

// ServiceImpl keeps the persisted user state in memory and flushes
// every mutation straight back to the store. There is at most one
// logged-in user; with none, favorites land in the global set.
type ServiceImpl struct {
	mu     sync.Mutex
	store  KeyValueRepository
	logger *zap.Logger

	globalFavorites []Station
	users           []User
	currentUser     *User
	prefs           Preferences
}

func NewService(store KeyValueRepository, logger *zap.Logger) *ServiceImpl {
	s := &ServiceImpl{
		store:  store,
		logger: logger,
		prefs:  Preferences{Autoplay: true, DefaultVolume: defaultVolumePercent},
	}
	s.loadJSON(keyFavorites, &s.globalFavorites)
	s.loadJSON(keyUsers, &s.users)
	s.loadJSON(keyPreferences, &s.prefs)

	var current User
	if s.loadJSON(keyCurrentUser, &current) {
		s.currentUser = &current
	}
	return s
}

// Register creates a user with an empty favorites list and history and
// logs them in. Email uniqueness is enforced here and nowhere else.
func (s *ServiceImpl) Register(username, email, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrDuplicateEmail
		}
	}

	user := User{
		ID:             uuid.New().String(),
		Username:       username,
		Email:          email,
		Password:       password,
		Favorites:      []Station{},
		RecentlyPlayed: []HistoryEntry{},
	}
	s.users = append(s.users, user)
	s.saveJSON(keyUsers, s.users)

	s.currentUser = &user
	s.saveJSON(keyCurrentUser, user)
	s.logger.Info("user registered", zap.String("user_id", user.ID))

	out := user
	return &out, nil
}

func (s *ServiceImpl) Login(email, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := Credentials{Email: email, Password: password}
	for i := range s.users {
		if creds.Matches(s.users[i]) {
			user := s.users[i]
			s.currentUser = &user
			s.saveJSON(keyCurrentUser, user)
			s.logger.Info("user logged in", zap.String("user_id", user.ID))

			out := user
			return &out, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// Logout clears the current-user marker only; the global favorites set
// and any loaded stations stay as they are.
func (s *ServiceImpl) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentUser = nil
	if err := s.store.Delete(keyCurrentUser); err != nil {
		s.logger.Warn("failed to clear current user", zap.Error(err))
	}
}

func (s *ServiceImpl) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentUser == nil {
		return nil
	}
	out := *s.currentUser
	return &out
}

// UpdateProfile changes the logged-in user's settings. An empty
// newPassword keeps the old one.
func (s *ServiceImpl) UpdateProfile(username, email, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentUser == nil {
		return errors.New("not logged in")
	}
	s.currentUser.Username = username
	s.currentUser.Email = email
	if newPassword != "" {
		s.currentUser.Password = newPassword
	}
	s.syncCurrentUser()
	return nil
}

// ToggleFavorite flips the station's membership in the effective
// favorites set and reports the new state.
func (s *ServiceImpl) ToggleFavorite(station Station) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentUser != nil {
		s.currentUser.Favorites, _ = flipStation(s.currentUser.Favorites, station)
		s.syncCurrentUser()
		return containsStation(s.currentUser.Favorites, station.ID)
	}

	s.globalFavorites, _ = flipStation(s.globalFavorites, station)
	s.saveJSON(keyFavorites, s.globalFavorites)
	return containsStation(s.globalFavorites, station.ID)
}

func (s *ServiceImpl) Favorites() []Station {
	s.mu.Lock()
	defer s.mu.Unlock()

	var favs []Station
	if s.currentUser != nil {
		favs = s.currentUser.Favorites
	} else {
		favs = s.globalFavorites
	}
	out := make([]Station, len(favs))
	copy(out, favs)
	return out
}

// RecordHistory notes a playback for the logged-in user: any earlier
// entry for the station is removed, the new one goes to the front and
// the list is capped at 20. Anonymous playback is not recorded.
func (s *ServiceImpl) RecordHistory(station Station) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentUser == nil {
		return
	}

	recents := s.currentUser.RecentlyPlayed
	kept := make([]HistoryEntry, 0, len(recents)+1)
	kept = append(kept, HistoryEntry{Station: station, PlayedAt: time.Now()})
	for _, e := range recents {
		if e.Station.ID != station.ID {
			kept = append(kept, e)
		}
	}
	if len(kept) > historyLimit {
		kept = kept[:historyLimit]
	}
	s.currentUser.RecentlyPlayed = kept
	s.syncCurrentUser()
}

func (s *ServiceImpl) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentUser == nil {
		return nil
	}
	out := make([]HistoryEntry, len(s.currentUser.RecentlyPlayed))
	copy(out, s.currentUser.RecentlyPlayed)
	return out
}

func (s *ServiceImpl) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.prefs
}

func (s *ServiceImpl) SavePreferences(prefs Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prefs.DefaultVolume < 0 {
		prefs.DefaultVolume = 0
	}
	if prefs.DefaultVolume > 100 {
		prefs.DefaultVolume = 100
	}
	s.prefs = prefs
	s.saveJSON(keyPreferences, s.prefs)
}

func (s *ServiceImpl) SetDefaultVolume(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.DefaultVolume = percent
	s.saveJSON(keyPreferences, s.prefs)
}

// SubmitContact validates and stores a contact-form message.
func (s *ServiceImpl) SubmitContact(name, email, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var problems []string
	switch {
	case name == "":
		problems = append(problems, "Name is required.")
	case len(name) < 2:
		problems = append(problems, "Name must be at least 2 characters.")
	}
	switch {
	case email == "":
		problems = append(problems, "Email is required.")
	case !strings.Contains(email, "@") || !strings.Contains(email, "."):
		problems = append(problems, "Please enter a valid email address.")
	}
	switch {
	case message == "":
		problems = append(problems, "Message is required.")
	case len(message) < 10:
		problems = append(problems, "Message must be at least 10 characters.")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "\n"))
	}

	var messages []ContactMessage
	s.loadJSON(keyContactMessages, &messages)
	messages = append(messages, ContactMessage{
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: time.Now(),
	})
	s.saveJSON(keyContactMessages, messages)
	return nil
}

func (s *ServiceImpl) close() {
	s.store.close()
}

// syncCurrentUser flushes the logged-in user to both the current-user
// key and their slot in the roster.
func (s *ServiceImpl) syncCurrentUser() {
	if s.currentUser == nil {
		return
	}
	for i := range s.users {
		if s.users[i].ID == s.currentUser.ID {
			s.users[i] = *s.currentUser
			break
		}
	}
	s.saveJSON(keyUsers, s.users)
	s.saveJSON(keyCurrentUser, *s.currentUser)
}

func (s *ServiceImpl) loadJSON(key string, v interface{}) bool {
	raw, err := s.store.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("failed to read stored value", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("stored value is not valid json", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *ServiceImpl) saveJSON(key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to serialize value", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Set(key, raw); err != nil {
		s.logger.Error("failed to persist value", zap.String("key", key), zap.Error(err))
	}
}

// flipStation toggles the station's membership in the list, keyed by
// station ID, and reports whether it was added.
func flipStation(stations []Station, station Station) ([]Station, bool) {
	for i, s := range stations {
		if s.ID == station.ID {
			return append(stations[:i], stations[i+1:]...), false
		}
	}
	return append(stations, station), true
}

func containsStation(stations []Station, id string) bool {
	for _, s := range stations {
		if s.ID == id {
			return true
		}
	}
	return false
}
