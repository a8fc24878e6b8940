package main

// this file contains implementation of HTTP handlers - REST API

import (
	"errors"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

var (
	jwtSecret = []byte("secret")
	service   Service
	radio     *Radio
	searcher  *Searcher
)

func NewHTTPRouter(_service Service, _radio *Radio, _searcher *Searcher) *echo.Echo {
	service = _service
	radio = _radio
	searcher = _searcher

	r := echo.New()
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))
	router := r.Group("/api")
	router.GET("/health", healthCheckHandler)
	router.POST("/register", registerHandler)
	router.POST("/login", loginHandler)
	router.POST("/logout", logoutHandler)
	router.POST("/contact", contactHandler)

	stationGroup := router.Group("/stations")
	{
		stationGroup.GET("", listStationsHandler)
		stationGroup.POST("/search", searchStationsHandler)
	}

	playerGroup := router.Group("/player")
	{
		playerGroup.GET("/now_playing", nowPlayingHandler)
		playerGroup.POST("/play", playHandler)
		playerGroup.POST("/toggle", togglePlayPauseHandler)
		playerGroup.POST("/next", nextHandler)
		playerGroup.POST("/prev", prevHandler)
		playerGroup.POST("/shuffle", shuffleHandler)
		playerGroup.POST("/volume", volumeHandler)
		playerGroup.POST("/mute", muteHandler)
	}

	router.POST("/favorites/toggle", toggleFavoriteHandler)
	router.GET("/favorites", listFavoritesHandler)
	router.GET("/preferences", getPreferencesHandler)

	meGroup := router.Group("/me")
	meGroup.Use(middleware.JWT(jwtSecret))
	{
		meGroup.GET("/history", historyHandler)
		meGroup.PUT("/settings", updateSettingsHandler)
		meGroup.PUT("/preferences", updatePreferencesHandler)
	}

	return r
}

func registerHandler(c echo.Context) error {
	form := struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}{}
	if err := c.Bind(&form); err != nil {
		return c.String(http.StatusBadRequest, "Missing form data")
	}
	if form.Username == "" || form.Email == "" || form.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Please fill in all fields",
		})
	}

	user, err := service.Register(form.Username, form.Email, form.Password)
	if errors.Is(err, ErrDuplicateEmail) {
		return c.JSON(http.StatusConflict, echo.Map{
			"message": err.Error(),
		})
	}
	if err != nil {
		return err
	}

	token, err := signedTokenFor(user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":  user,
		"token": token,
	})
}

func loginHandler(c echo.Context) error {
	form := struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}{}
	if err := c.Bind(&form); err != nil {
		return c.String(http.StatusBadRequest, "Missing form data")
	}

	user, err := service.Login(form.Email, form.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"message": err.Error(),
		})
	}
	if err != nil {
		return err
	}

	token, err := signedTokenFor(user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":  user,
		"token": token,
	})
}

func logoutHandler(c echo.Context) error {
	service.Logout()
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Done",
	})
}

func listStationsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"stations": radio.Stations(),
	})
}

// searchStationsHandler only schedules the debounced lookup; the UI
// polls GET /stations for the refreshed list once results land.
func searchStationsHandler(c echo.Context) error {
	form := struct {
		Term string `json:"term" form:"term"`
		Mode string `json:"mode" form:"mode"`
	}{}
	if err := c.Bind(&form); err != nil {
		return c.String(http.StatusBadRequest, "Missing form data")
	}

	mode := SearchMode(form.Mode)
	switch mode {
	case SearchByName, SearchByCountry, SearchByTag:
	case "":
		mode = SearchByName
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "mode must be one of name, country, tag",
		})
	}

	searcher.Search(Query{Term: form.Term, Mode: mode})
	return c.JSON(http.StatusAccepted, echo.Map{
		"message": "search scheduled",
	})
}

func nowPlayingHandler(c echo.Context) error {
	station, playing, started := radio.NowPlaying()
	if !started {
		return c.JSON(http.StatusOK, echo.Map{
			"state":   "idle",
			"station": nil,
		})
	}

	state := "paused"
	if playing {
		state = "running"
	}
	volume, muted := radio.Volume()
	return c.JSON(http.StatusOK, echo.Map{
		"state":   state,
		"station": station,
		"volume":  volume,
		"muted":   muted,
	})
}

func playHandler(c echo.Context) error {
	form := struct {
		Index *int `json:"index" form:"index"`
	}{}
	if err := c.Bind(&form); err != nil || form.Index == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Missing index",
		})
	}
	radio.Play(*form.Index)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Done",
	})
}

func togglePlayPauseHandler(c echo.Context) error {
	radio.TogglePlayPause()
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Done",
	})
}

func nextHandler(c echo.Context) error {
	radio.Next()
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Done",
	})
}

func prevHandler(c echo.Context) error {
	radio.Previous()
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Done",
	})
}

func shuffleHandler(c echo.Context) error {
	radio.Shuffle()
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Done",
	})
}

func volumeHandler(c echo.Context) error {
	form := struct {
		Percent *int `json:"percent" form:"percent"`
	}{}
	if err := c.Bind(&form); err != nil || form.Percent == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Missing percent",
		})
	}
	radio.SetVolume(*form.Percent)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Done",
	})
}

func muteHandler(c echo.Context) error {
	muted := radio.ToggleMute()
	return c.JSON(http.StatusOK, echo.Map{
		"muted": muted,
	})
}

func toggleFavoriteHandler(c echo.Context) error {
	form := struct {
		StationID string `json:"station_id" form:"station_id"`
	}{}
	if err := c.Bind(&form); err != nil || form.StationID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Missing station_id",
		})
	}

	station, ok := findStation(radio.Stations(), form.StationID)
	if !ok {
		// allow favoriting straight from an already-favorited card
		station, ok = findStation(service.Favorites(), form.StationID)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "Unknown station",
		})
	}

	isFavorite := service.ToggleFavorite(station)
	return c.JSON(http.StatusOK, echo.Map{
		"favorite": isFavorite,
	})
}

func listFavoritesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"stations": service.Favorites(),
	})
}

func getPreferencesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, service.Preferences())
}

func updatePreferencesHandler(c echo.Context) error {
	prefs := Preferences{}
	if err := c.Bind(&prefs); err != nil {
		return c.String(http.StatusBadRequest, "Missing form data")
	}
	service.SavePreferences(prefs)
	return c.JSON(http.StatusOK, service.Preferences())
}

func historyHandler(c echo.Context) error {
	if !sessionMatchesToken(c) {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"message": "Not logged in",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"history": service.History(),
	})
}

func updateSettingsHandler(c echo.Context) error {
	if !sessionMatchesToken(c) {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"message": "Not logged in",
		})
	}
	form := struct {
		Username    string `json:"username" form:"username"`
		Email       string `json:"email" form:"email"`
		NewPassword string `json:"new_password" form:"new_password"`
	}{}
	if err := c.Bind(&form); err != nil {
		return c.String(http.StatusBadRequest, "Missing form data")
	}
	if err := service.UpdateProfile(form.Username, form.Email, form.NewPassword); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Settings saved successfully!",
	})
}

func contactHandler(c echo.Context) error {
	form := struct {
		Name    string `json:"name" form:"name"`
		Email   string `json:"email" form:"email"`
		Message string `json:"message" form:"message"`
	}{}
	if err := c.Bind(&form); err != nil {
		return c.String(http.StatusBadRequest, "Missing form data")
	}
	if err := service.SubmitContact(form.Name, form.Email, form.Message); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Thank you for contacting us! We will get back to you soon.",
	})
}

func healthCheckHandler(c echo.Context) error {
	return c.String(http.StatusOK, "I am up and running!")
}

func signedTokenFor(user *User) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = user.ID
	claims["exp"] = time.Now().Add(time.Hour * 72).Unix()
	return token.SignedString(jwtSecret)
}

func getUserIDFromContext(c echo.Context) string {
	return c.Get("user").(*jwt.Token).Claims.(jwt.MapClaims)["user_id"].(string)
}

// sessionMatchesToken makes sure the token's user is the one currently
// logged in; the session itself is single-user.
func sessionMatchesToken(c echo.Context) bool {
	current := service.CurrentUser()
	return current != nil && current.ID == getUserIDFromContext(c)
}

func findStation(stations []Station, id string) (Station, bool) {
	for _, s := range stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}
