package delivery

import "errors"

var (
	ErrNoDeliverer        = errors.New("no deliverer for channel type")
	ErrChannelMismatch    = errors.New("deliverer does not handle this channel")
	ErrWhatsAppNotEnabled = errors.New("whatsapp delivery is not configured")
)
