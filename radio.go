// this file deals with the playback state of the system
package main

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultVolumePercent = 70
	failureSkipDelay     = 2 * time.Second
)

// AudioOutput is the single audio handle the Radio owns exclusively.
// Play blocks until the stream is live or has failed to open.
type AudioOutput interface {
	Play(ctx context.Context, streamURL string) error
	Pause()
	Resume() error
	Stop()
	SetVolume(percent int)
	Close() error
}

// Radio drives the shared audio output through the
// play/pause/next/prev/shuffle/mute state machine.
//
// Every play attempt is tagged with a generation number; a later Play
// cancels the in-flight attempt's context and completions carrying a
// stale generation are discarded, so the last call always wins no
// matter in which order the stream negotiations resolve. A stale
// attempt that managed to bind the output anyway is torn down and the
// current station restarted.
type Radio struct {
	mu            sync.Mutex
	out           AudioOutput
	service       Service
	notifier      Notifier
	logger        *zap.Logger
	stations      []Station
	currentIndex  int
	nowPlaying    *Station
	isPlaying     bool
	volume        int
	muted         bool
	preMuteVolume int
	generation    uint64
	cancelPlay    context.CancelFunc
	failStreak    int
	skipDelay     time.Duration
	skipTimer     *time.Timer
}

func NewRadio(out AudioOutput, service Service, notifier Notifier, logger *zap.Logger) *Radio {
	volume := service.Preferences().DefaultVolume
	if volume < 0 || volume > 100 {
		volume = defaultVolumePercent
	}
	out.SetVolume(volume)

	return &Radio{
		out:       out,
		service:   service,
		notifier:  notifier,
		logger:    logger,
		volume:    volume,
		skipDelay: failureSkipDelay,
	}
}

// SetStations replaces the active station list. Playback of the
// previously started station is left running; the cursor is reset when
// it no longer points inside the new list.
func (r *Radio) SetStations(stations []Station) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations = stations
	if r.currentIndex >= len(stations) {
		r.currentIndex = 0
	}
	r.failStreak = 0
}

func (r *Radio) Stations() []Station {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Station, len(r.stations))
	copy(out, r.stations)
	return out
}

// NowPlaying reports the station the player last started, whether the
// output is currently playing, and whether playback has begun at all.
func (r *Radio) NowPlaying() (Station, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nowPlaying == nil {
		return Station{}, false, false
	}
	return *r.nowPlaying, r.isPlaying, true
}

// Play starts the station at index. Out-of-range indexes are ignored.
func (r *Radio) Play(index int) {
	r.play(index, true)
}

func (r *Radio) play(index int, manual bool) {
	r.mu.Lock()
	if index < 0 || index >= len(r.stations) {
		r.mu.Unlock()
		return
	}
	if manual {
		r.failStreak = 0
	}
	if r.skipTimer != nil {
		r.skipTimer.Stop()
		r.skipTimer = nil
	}
	if r.cancelPlay != nil {
		r.cancelPlay()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelPlay = cancel
	r.generation++
	gen := r.generation
	r.currentIndex = index
	r.isPlaying = false
	station := r.stations[index]
	r.mu.Unlock()

	r.out.Stop()
	go r.attempt(ctx, gen, index, station)
}

func (r *Radio) attempt(ctx context.Context, gen uint64, index int, station Station) {
	err := r.out.Play(ctx, station.StreamURL)

	r.mu.Lock()
	if gen != r.generation {
		// a newer Play superseded this attempt; if the stale stream
		// still reached the output, release it and put the current
		// station back on air
		restart := err == nil && r.isPlaying
		cur := r.currentIndex
		r.mu.Unlock()
		if err == nil {
			r.out.Stop()
			if restart {
				r.play(cur, false)
			}
		}
		return
	}

	if err == nil {
		r.isPlaying = true
		r.failStreak = 0
		r.nowPlaying = &station
		r.mu.Unlock()
		r.notifier.NowPlaying(station, true)
		r.service.RecordHistory(station)
		return
	}

	r.isPlaying = false
	r.failStreak++
	n := len(r.stations)
	// stop skipping after one full pass over the list
	exhausted := n == 0 || r.failStreak >= n
	if !exhausted {
		next := (index + 1) % n
		r.skipTimer = time.AfterFunc(r.skipDelay, func() {
			r.mu.Lock()
			stale := gen != r.generation
			r.mu.Unlock()
			if stale {
				return
			}
			r.play(next, false)
		})
	}
	r.mu.Unlock()

	r.logger.Warn("station failed to play",
		zap.String("station", station.Name),
		zap.String("stream_url", station.StreamURL),
		zap.Error(err),
	)
	if exhausted {
		r.notifier.Toast("No station could be played right now. Please try again later.", ToastError)
		return
	}
	r.notifier.Toast("Could not play "+station.Name+". Trying the next station.", ToastError)
}

// TogglePlayPause pauses in place or resumes the current station. A
// resume failure is reported but never auto-advances.
func (r *Radio) TogglePlayPause() {
	r.mu.Lock()
	if r.nowPlaying == nil {
		r.mu.Unlock()
		return
	}
	station := *r.nowPlaying
	if r.isPlaying {
		r.isPlaying = false
		r.mu.Unlock()
		r.out.Pause()
		r.notifier.NowPlaying(station, false)
		return
	}
	r.mu.Unlock()

	if err := r.out.Resume(); err != nil {
		r.logger.Warn("failed to resume playback", zap.Error(err))
		r.notifier.Toast("Could not resume playback.", ToastError)
		return
	}
	r.mu.Lock()
	r.isPlaying = true
	r.mu.Unlock()
	r.notifier.NowPlaying(station, true)
}

// Next plays the following station, wrapping around the list.
func (r *Radio) Next() {
	r.mu.Lock()
	n := len(r.stations)
	cur := r.currentIndex
	r.mu.Unlock()
	if n == 0 {
		return
	}
	r.Play((cur + 1) % n)
}

// Previous plays the preceding station, wrapping around the list.
func (r *Radio) Previous() {
	r.mu.Lock()
	n := len(r.stations)
	cur := r.currentIndex
	r.mu.Unlock()
	if n == 0 {
		return
	}
	r.Play((cur - 1 + n) % n)
}

// Shuffle plays a uniformly random station other than the current one.
func (r *Radio) Shuffle() {
	r.mu.Lock()
	n := len(r.stations)
	cur := r.currentIndex
	r.mu.Unlock()
	if n == 0 {
		return
	}
	index := 0
	if n > 1 {
		index = rand.Intn(n - 1)
		if index >= cur {
			index++
		}
	}
	r.Play(index)
}

// SetVolume clamps to [0,100], applies immediately and persists the
// value as the default volume preference. While muted only the stored
// value changes; it is applied on unmute.
func (r *Radio) SetVolume(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	r.mu.Lock()
	r.volume = percent
	muted := r.muted
	r.mu.Unlock()

	if !muted {
		r.out.SetVolume(percent)
	}
	r.service.SetDefaultVolume(percent)
}

// ToggleMute zeroes the output, remembering the pre-mute volume.
// Unmuting restores it, defaulting to 70 when nothing was stored.
func (r *Radio) ToggleMute() bool {
	r.mu.Lock()
	if r.muted {
		r.muted = false
		restore := r.volume
		if restore == 0 {
			restore = r.preMuteVolume
		}
		if restore == 0 {
			restore = defaultVolumePercent
		}
		r.volume = restore
		r.mu.Unlock()
		r.out.SetVolume(restore)
		return false
	}
	r.muted = true
	r.preMuteVolume = r.volume
	r.mu.Unlock()
	r.out.SetVolume(0)
	return true
}

func (r *Radio) Volume() (percent int, muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume, r.muted
}

// Shutdown invalidates in-flight attempts and releases the output.
func (r *Radio) Shutdown() {
	r.mu.Lock()
	r.generation++
	if r.cancelPlay != nil {
		r.cancelPlay()
		r.cancelPlay = nil
	}
	if r.skipTimer != nil {
		r.skipTimer.Stop()
		r.skipTimer = nil
	}
	r.mu.Unlock()

	r.out.Stop()
	if err := r.out.Close(); err != nil {
		r.logger.Warn("failed to close audio output", zap.Error(err))
	}
}
