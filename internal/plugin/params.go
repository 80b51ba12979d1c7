package plugin

import (
	"fmt"
	"net/url"
)

// ParamURL is the key holding the media source
const ParamURL = "url"

// Params is the key-value accessor the host supplies for plugin parameters
type Params interface {
	Get(key string) string
}

// Values is a Params backed by a map
type Values map[string]string

// Get returns the value for key, or an empty string when not present
func (v Values) Get(key string) string {
	return v[key]
}

// ParseParams builds Values from a URL query string such as "url=https%3A%2F%2Fexample.com%2Fa.mp4&x=1".
// A leading '?' is allowed.  Only the first value of a repeated key is kept.
func ParseParams(rawQuery string) (Values, error) {
	if len(rawQuery) > 0 && rawQuery[0] == '?' {
		rawQuery = rawQuery[1:]
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to parse plugin parameters: %w", err)
	}

	values := make(Values, len(query))
	for key, vals := range query {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	return values, nil
}
