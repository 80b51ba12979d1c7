package media

import "fmt"

// Event is the name of a media element lifecycle event
type Event string

const (
	EventLoadStart      Event = "loadstart"
	EventSuspend        Event = "suspend"
	EventAbort          Event = "abort"
	EventError          Event = "error"
	EventEmptied        Event = "emptied"
	EventStalled        Event = "stalled"
	EventLoadedMetadata Event = "loadedmetadata"
	EventLoadedData     Event = "loadeddata"
	EventCanPlay        Event = "canplay"
	EventCanPlayThrough Event = "canplaythrough"
	EventPlaying        Event = "playing"
	EventWaiting        Event = "waiting"
	EventSeeking        Event = "seeking"
	EventSeeked         Event = "seeked"
	EventEnded          Event = "ended"
	EventPlay           Event = "play"
	EventPause          Event = "pause"
)

// LifecycleEvents lists every event an element can emit, in the order they are usually registered for tracing
var LifecycleEvents = []Event{
	EventLoadStart,
	EventSuspend,
	EventAbort,
	EventError,
	EventEmptied,
	EventStalled,
	EventLoadedMetadata,
	EventLoadedData,
	EventCanPlay,
	EventCanPlayThrough,
	EventPlaying,
	EventWaiting,
	EventSeeking,
	EventSeeked,
	EventEnded,
	EventPlay,
	EventPause,
}

// ErrorCode classifies a media error
type ErrorCode int

const (
	// ErrorUnknown is used when the element cannot classify the failure
	ErrorUnknown ErrorCode = 0
	// ErrorAborted means fetching the resource was aborted by request
	ErrorAborted ErrorCode = 1
	// ErrorNetwork means a network failure stopped the resource from being fetched
	ErrorNetwork ErrorCode = 2
	// ErrorDecode means the resource could not be decoded
	ErrorDecode ErrorCode = 3
	// ErrorSourceNotSupported means the resource is unsuitable for playback
	ErrorSourceNotSupported ErrorCode = 4
)

// Text returns the human readable description of the code
func (c ErrorCode) Text() string {
	switch c {
	case ErrorAborted:
		return "Playback Aborted"
	case ErrorNetwork:
		return "Network Error"
	case ErrorDecode:
		return "Media Decode Error"
	case ErrorSourceNotSupported:
		return "Source Not Supported"
	default:
		return "Unknown Error"
	}
}

// MediaError is the error object an element exposes after it emitted an error event
type MediaError struct {
	Code    ErrorCode
	Message string // Native message, may be empty
}

// Error formats the error as "<code>: <text>[: <message>]"
func (e *MediaError) Error() string {
	msg := fmt.Sprintf("%d: %s", int(e.Code), e.Code.Text())
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Listener is invoked with the name of the event that fired
type Listener func(Event)

// ListenerID identifies a registered listener so it can be removed again
type ListenerID uint64

// Element is a native media playback element.  Volume is in the range 0 to 1 and times are in seconds.
// Implementations deliver events serially on a single goroutine.
type Element interface {
	Src() string
	SetSrc(src string)
	Load()
	Play()
	Pause()

	Duration() float64
	CurrentTime() float64
	SetCurrentTime(seconds float64)

	Volume() float64
	SetVolume(volume float64)
	Muted() bool
	SetMuted(muted bool)
	PlaybackRate() float64
	SetPlaybackRate(rate float64)

	// Error returns the last media error, or nil if none occurred
	Error() *MediaError

	AddEventListener(event Event, listener Listener) ListenerID
	RemoveEventListener(event Event, id ListenerID)
}
