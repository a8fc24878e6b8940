package main

// fallbackStations keep the player usable when every directory mirror
// is unreachable. All entries already satisfy the sanitizer rules.
var fallbackStations = []Station{
	{
		ID:        "fallback-groove-salad",
		Name:      "SomaFM Groove Salad",
		Country:   "The United States Of America",
		State:     "California",
		StreamURL: "https://ice2.somafm.com/groovesalad-128-mp3",
		Tags:      "ambient,chillout,electronic",
		Language:  "english",
		Latitude:  37.7749,
		Longitude: -122.4194,
	},
	{
		ID:        "fallback-drone-zone",
		Name:      "SomaFM Drone Zone",
		Country:   "The United States Of America",
		State:     "California",
		StreamURL: "https://ice4.somafm.com/dronezone-128-mp3",
		Tags:      "ambient,space,drone",
		Language:  "english",
		Latitude:  37.7749,
		Longitude: -122.4194,
	},
	{
		ID:        "fallback-nightride-fm",
		Name:      "Nightride FM",
		Country:   "Germany",
		StreamURL: "https://stream.nightride.fm/nightride.mp3",
		Tags:      "synthwave,electronic",
		Language:  "english",
		Latitude:  52.52,
		Longitude: 13.405,
	},
	{
		ID:        "fallback-fip",
		Name:      "FIP",
		Country:   "France",
		StreamURL: "https://icecast.radiofrance.fr/fip-midfi.mp3",
		Tags:      "eclectic,jazz,world music",
		Language:  "french",
		Latitude:  48.8566,
		Longitude: 2.3522,
	},
	{
		ID:        "fallback-bbc-world-service",
		Name:      "BBC World Service",
		Country:   "The United Kingdom Of Great Britain And Northern Ireland",
		StreamURL: "http://stream.live.vc.bbcmedia.co.uk/bbc_world_service",
		Tags:      "news,talk",
		Language:  "english",
		Latitude:  51.5074,
		Longitude: -0.1278,
	},
	{
		ID:        "fallback-radio-paradise",
		Name:      "Radio Paradise",
		Country:   "The United States Of America",
		StreamURL: "https://stream.radioparadise.com/mp3-128",
		Tags:      "eclectic,rock,indie",
		Language:  "english",
		Latitude:  39.8283,
		Longitude: -98.5795,
	},
	{
		ID:        "fallback-jazz24",
		Name:      "Jazz24",
		Country:   "The United States Of America",
		State:     "Washington",
		StreamURL: "https://live.amperwave.net/direct/ppm-jazz24mp3-ibc1",
		Tags:      "jazz,smooth jazz",
		Language:  "english",
		Latitude:  47.6062,
		Longitude: -122.3321,
	},
	{
		ID:        "fallback-classic-fm",
		Name:      "Classic FM",
		Country:   "The United Kingdom Of Great Britain And Northern Ireland",
		StreamURL: "https://media-ice.musicradio.com/ClassicFMMP3",
		Tags:      "classical",
		Language:  "english",
		Latitude:  51.5074,
		Longitude: -0.1278,
	},
}
