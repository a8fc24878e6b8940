// this file owns the speaker; everything else goes through AudioOutput
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// volumeRangeDB maps the 0-100 percent scale onto the exponential
// volume knob: 100% is unity gain, 0% is silent.
const volumeRangeDB = 5.0

type beepOutput struct {
	mu       sync.Mutex
	client   *http.Client
	initOnce sync.Once
	mixRate  beep.SampleRate
	streamer beep.StreamSeekCloser
	body     io.Closer
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	percent  int
}

// NewBeepOutput returns an AudioOutput backed by the beep speaker.
func NewBeepOutput() AudioOutput {
	return &beepOutput{
		client:  &http.Client{Timeout: 0},
		percent: defaultVolumePercent,
	}
}

func (o *beepOutput) Play(ctx context.Context, streamURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "CosmoTune Radio Player")

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	decoded, format, err := mp3.Decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		return fmt.Errorf("decoding stream: %w", err)
	}

	o.initOnce.Do(func() {
		o.mixRate = format.SampleRate
		err = speaker.Init(o.mixRate, o.mixRate.N(time.Second/10))
	})
	if err != nil {
		decoded.Close()
		resp.Body.Close()
		return fmt.Errorf("initializing speaker: %w", err)
	}

	o.mu.Lock()
	// the caller may have moved on while we were connecting; never
	// bind a cancelled stream to the speaker
	select {
	case <-ctx.Done():
		o.mu.Unlock()
		decoded.Close()
		resp.Body.Close()
		return ctx.Err()
	default:
	}
	o.releaseLocked()

	ctrl := &beep.Ctrl{Streamer: decoded}
	vol := &effects.Volume{
		Streamer: ctrl,
		Base:     2,
		Volume:   percentToDB(o.percent),
		Silent:   o.percent == 0,
	}
	var playStream beep.Streamer = vol
	if format.SampleRate != o.mixRate {
		playStream = beep.Resample(4, format.SampleRate, o.mixRate, vol)
	}

	o.streamer = decoded
	o.body = resp.Body
	o.ctrl = ctrl
	o.volume = vol
	o.mu.Unlock()

	speaker.Clear()
	speaker.Play(playStream)
	return nil
}

func (o *beepOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return
	}
	speaker.Lock()
	o.ctrl.Paused = true
	speaker.Unlock()
}

func (o *beepOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return errors.New("no stream to resume")
	}
	speaker.Lock()
	o.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (o *beepOutput) Stop() {
	speaker.Clear()
	o.mu.Lock()
	o.releaseLocked()
	o.mu.Unlock()
}

func (o *beepOutput) SetVolume(percent int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.percent = percent
	if o.volume == nil {
		return
	}
	speaker.Lock()
	o.volume.Volume = percentToDB(percent)
	o.volume.Silent = percent == 0
	speaker.Unlock()
}

func (o *beepOutput) Close() error {
	o.Stop()
	return nil
}

// releaseLocked closes the current stream handles. Caller holds o.mu.
func (o *beepOutput) releaseLocked() {
	if o.streamer != nil {
		o.streamer.Close()
		o.streamer = nil
	}
	if o.body != nil {
		o.body.Close()
		o.body = nil
	}
	o.ctrl = nil
	o.volume = nil
}

func percentToDB(percent int) float64 {
	return (float64(percent)/100 - 1) * volumeRangeDB
}
