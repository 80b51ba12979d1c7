package plugin

import (
	"sync"

	"github.com/PizzaHomicide/vplug/internal/log"
	"github.com/PizzaHomicide/vplug/internal/media"
)

// ElementLookup returns the element the adapter should bind to, or nil if there is none
type ElementLookup func() media.Element

type binding struct {
	event media.Event
	id    media.ListenerID
}

// Adapter binds one media element to the host framework.  It mirrors the element's lifecycle events into host
// callbacks and forwards the host's transport commands to the element.  Every operation tolerates an unbound
// adapter: commands become no-ops and queries return their defaults.
type Adapter struct {
	lookup      ElementLookup
	host        Host
	params      Params
	debugEvents bool

	mu         sync.Mutex
	element    media.Element
	bindings   []binding
	debugIDs   map[media.Event]media.ListenerID
	readyLatch Latch
	endedLatch Latch
}

// NewAdapter creates an unbound adapter.  When debugEvents is set, Init also attaches a trace listener to every
// lifecycle event which forwards the event name to the host's debug sink.
func NewAdapter(lookup ElementLookup, host Host, params Params, debugEvents bool) *Adapter {
	if params == nil {
		params = Values{}
	}
	return &Adapter{
		lookup:      lookup,
		host:        host,
		params:      params,
		debugEvents: debugEvents,
		debugIDs:    make(map[media.Event]media.ListenerID),
	}
}

// Init acquires the element and registers the adapter's listeners on it.  Calling Init twice without Dispose
// registers the functional listeners twice.
func (a *Adapter) Init() {
	var el media.Element
	if a.lookup != nil {
		el = a.lookup()
	}
	if el == nil {
		log.Warn("No media element available to bind")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.element = el
	a.listen(el, media.EventCanPlay, a.onReady)
	a.listen(el, media.EventError, a.onError)
	a.listen(el, media.EventEnded, a.onEnded)
	a.listen(el, media.EventWaiting, a.onWaiting)
	a.listen(el, media.EventPlay, a.onContinue)
	a.listen(el, media.EventPlaying, a.onPlaying)
	a.listen(el, media.EventPause, a.onPaused)
	a.listen(el, media.EventSeeked, a.onContinue)
	a.listen(el, media.EventAbort, a.onContinue)

	if a.debugEvents {
		for _, event := range media.LifecycleEvents {
			a.addDebugEvent(el, event)
		}
	}
	log.Debug("Media element bound", "listeners", len(a.bindings), "debug_listeners", len(a.debugIDs))
}

// Ready starts loading the source named by the "url" parameter
func (a *Adapter) Ready() {
	el := a.bound()
	if el == nil {
		a.host.Error("Video player is not initialized")
		return
	}

	a.host.Debug("Video plugin ready")
	url := a.params.Get(ParamURL)
	if url == "" {
		a.host.Warn("Video URL is missing or empty")
		return
	}

	log.Info("Loading media source", "url", url)
	a.host.StartLoading()
	el.SetSrc(url)
	el.Load()
}

// Dispose removes every listener added by Init and releases the element
func (a *Adapter) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()

	el := a.element
	if el == nil {
		return
	}

	for _, b := range a.bindings {
		el.RemoveEventListener(b.event, b.id)
	}
	a.bindings = nil

	for event := range a.debugIDs {
		a.removeDebugEvent(el, event)
	}

	a.element = nil
	log.Debug("Media element released")
}

func (a *Adapter) Play() {
	if el := a.bound(); el != nil {
		el.Play()
	}
}

func (a *Adapter) Pause() {
	if el := a.bound(); el != nil {
		el.Pause()
	}
}

// Stop pauses the element.  Media elements have no stop primitive, so the position is kept.
func (a *Adapter) Stop() {
	if el := a.bound(); el != nil {
		el.Pause()
	}
}

// Duration returns the media duration in seconds, or 0 when unbound
func (a *Adapter) Duration() float64 {
	if el := a.bound(); el != nil {
		return el.Duration()
	}
	return 0
}

// Position returns the playback position in seconds, or 0 when unbound
func (a *Adapter) Position() float64 {
	if el := a.bound(); el != nil {
		return el.CurrentTime()
	}
	return 0
}

// SetPosition seeks to position seconds.  Bounds are left to the element.
func (a *Adapter) SetPosition(position float64) {
	if el := a.bound(); el != nil {
		el.SetCurrentTime(position)
	}
}

// SetVolume sets the volume as a percentage between 0 and 100
func (a *Adapter) SetVolume(volume float64) {
	if el := a.bound(); el != nil {
		el.SetVolume(volume / 100)
	}
}

// Volume returns the volume as a percentage, or 100 when unbound
func (a *Adapter) Volume() float64 {
	if el := a.bound(); el != nil {
		return el.Volume() * 100
	}
	return 100
}

func (a *Adapter) SetMuted(muted bool) {
	if el := a.bound(); el != nil {
		el.SetMuted(muted)
	}
}

// Muted reports whether the element is muted, false when unbound
func (a *Adapter) Muted() bool {
	if el := a.bound(); el != nil {
		return el.Muted()
	}
	return false
}

// Speed returns the playback rate multiplier, or 1 when unbound
func (a *Adapter) Speed() float64 {
	if el := a.bound(); el != nil {
		return el.PlaybackRate()
	}
	return 1
}

func (a *Adapter) SetSpeed(speed float64) {
	if el := a.bound(); el != nil {
		el.SetPlaybackRate(speed)
	}
}

// UpdateData returns the current position, duration and speed
func (a *Adapter) UpdateData() UpdateData {
	return UpdateData{
		Position: a.Position(),
		Duration: a.Duration(),
		Speed:    a.Speed(),
	}
}

// IsReady and IsEnded report whether the one-shot transitions have happened
func (a *Adapter) IsReady() bool { return a.readyLatch.Fired() }
func (a *Adapter) IsEnded() bool { return a.endedLatch.Fired() }

func (a *Adapter) bound() media.Element {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.element
}

// listen must be called with a.mu held
func (a *Adapter) listen(el media.Element, event media.Event, listener media.Listener) {
	id := el.AddEventListener(event, listener)
	a.bindings = append(a.bindings, binding{event: event, id: id})
}

// addDebugEvent must be called with a.mu held.  An existing trace listener for the event is replaced.
func (a *Adapter) addDebugEvent(el media.Element, event media.Event) {
	a.removeDebugEvent(el, event)
	a.debugIDs[event] = el.AddEventListener(event, func(e media.Event) {
		if a.bound() == nil {
			return
		}
		a.host.Debug("Video event: " + string(e))
	})
}

// removeDebugEvent must be called with a.mu held
func (a *Adapter) removeDebugEvent(el media.Element, event media.Event) {
	if id, ok := a.debugIDs[event]; ok {
		el.RemoveEventListener(event, id)
		delete(a.debugIDs, event)
	}
}

func (a *Adapter) onWaiting(media.Event) {
	if a.bound() == nil {
		return
	}
	a.host.StartLoading()
}

func (a *Adapter) onPlaying(media.Event) {
	if a.bound() == nil {
		return
	}
	a.host.StopLoading()
	a.host.SetState(StatePlaying)
}

func (a *Adapter) onPaused(media.Event) {
	if a.bound() == nil {
		return
	}
	a.host.StopLoading()
	a.host.SetState(StatePaused)
}

// onContinue handles the events that mean playback resumed from a suspension
func (a *Adapter) onContinue(media.Event) {
	if a.bound() == nil {
		return
	}
	a.host.StopLoading()
}

func (a *Adapter) onReady(media.Event) {
	if a.bound() == nil || !a.readyLatch.Fire() {
		return
	}
	a.host.Debug("Video ready")
	a.host.ApplyVolume()
	a.host.StopLoading()
	a.host.StartPlayback(true)
}

func (a *Adapter) onError(media.Event) {
	el := a.bound()
	if el == nil {
		return
	}
	mediaErr := el.Error()
	if mediaErr == nil {
		return
	}
	log.Warn("Media element reported an error", "code", int(mediaErr.Code), "message", mediaErr.Message)
	a.host.Error("Video error: " + mediaErr.Error())
	a.host.StopLoading()
}

func (a *Adapter) onEnded(media.Event) {
	if a.bound() == nil || !a.endedLatch.Fire() {
		return
	}
	a.host.Debug("Video ended")
	a.host.StopPlayback()
}
