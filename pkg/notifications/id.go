package notifications

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z_]+\.[a-zA-Z_]+-\d+$`)

// BuildID returns the de-duplication key "<event value>-<content id>".
// It panics on a zero event or a negative content id.
func BuildID(ev event.Event, contentID int64) string {
	if ev.IsZero() {
		panic("notifications: BuildID called with zero event")
	}
	if contentID < 0 {
		panic(fmt.Sprintf("notifications: negative content id %d", contentID))
	}
	return ev.Value() + "-" + strconv.FormatInt(contentID, 10)
}

// SplitID checks the format of id and splits it on the last '-' into the
// raw event value and the content id. It does not resolve the event.
func SplitID(id string) (string, int64, error) {
	if !idPattern.MatchString(id) {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidIDFormat, id)
	}
	i := strings.LastIndexByte(id, '-')
	contentID, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return "", 0, errors.Join(fmt.Errorf("%w: %q", ErrInvalidIDFormat, id), err)
	}
	return id[:i], contentID, nil
}

// ParseID splits id and resolves its event against the taxonomy.
// Lookup ignores case; BuildID on the result yields the canonical id.
func ParseID(id string) (event.Event, int64, error) {
	value, contentID, err := SplitID(id)
	if err != nil {
		return event.Event{}, 0, err
	}
	ev, err := event.Resolve(value)
	if err != nil {
		return event.Event{}, 0, err
	}
	return ev, contentID, nil
}

// CanonicalID parses id and rebuilds it in canonical case.
func CanonicalID(id string) (string, error) {
	ev, contentID, err := ParseID(id)
	if err != nil {
		return "", err
	}
	return BuildID(ev, contentID), nil
}
