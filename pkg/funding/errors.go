package funding

import "errors"

var (
	ErrUnknownCreditType  = errors.New("unknown credit type")
	ErrUnsupportedContent = errors.New("unsupported content kind")
	ErrInvalidContent     = errors.New("invalid content payload")
)
