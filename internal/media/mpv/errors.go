package mpv

import (
	"net/url"
	"strings"

	"github.com/PizzaHomicide/vplug/internal/media"
)

// classifyFileError maps the file_error text of an end-file event onto a media error
func classifyFileError(fileError, src string) *media.MediaError {
	text := strings.ToLower(fileError)

	code := media.ErrorUnknown
	switch {
	case strings.Contains(text, "unrecognized file format"),
		strings.Contains(text, "no audio or video"),
		strings.Contains(text, "nothing to play"):
		code = media.ErrorSourceNotSupported
	case strings.Contains(text, "network"),
		strings.Contains(text, "http"):
		code = media.ErrorNetwork
	case strings.Contains(text, "loading failed"):
		if isRemote(src) {
			code = media.ErrorNetwork
		} else {
			code = media.ErrorSourceNotSupported
		}
	case strings.Contains(text, "output initialization failed"),
		strings.Contains(text, "decod"):
		code = media.ErrorDecode
	case strings.Contains(text, "abort"):
		code = media.ErrorAborted
	}

	return &media.MediaError{Code: code, Message: fileError}
}

// isRemote reports whether src is fetched over the network
func isRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		return false
	}
	// A single letter scheme is a Windows drive
	return len(u.Scheme) > 1
}
