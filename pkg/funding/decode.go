package funding

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

type decoder func(data []byte) (event.Content, error)

func decodeAs[T event.Content](data []byte) (event.Content, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var decoders = map[event.ContentKind]decoder{
	event.KindFundingRequest: decodeAs[Request],
	event.KindInvestment:     decodeAs[Investment],
	event.KindMovement:       decodeAs[Movement],
}

// Decode parses a JSON payload into the content type for kind.
func Decode(kind event.ContentKind, data []byte) (event.Content, error) {
	dec, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, kind)
	}
	c, err := dec(data)
	if err != nil {
		return nil, errors.Join(ErrInvalidContent, err)
	}
	if id := c.ContentID(); id < 0 {
		return nil, fmt.Errorf("%w: negative id %d", ErrInvalidContent, id)
	}
	return c, nil
}
