// Package webhook posts JSON notifications to user supplied endpoints.
//
// A Sender retries temporary failures (network errors, timeouts, 5xx, 408,
// 425 and 429) with a Backoff and gives up at once on other 4xx answers.
// With WithSigningSecret every request carries
//
//	X-Fundalert-Timestamp: <unix seconds>
//	X-Fundalert-Signature: hex(HMAC-SHA256(secret, "<timestamp>.<body>"))
//
// which receivers check with Verify. WithCircuitBreakers keeps one breaker
// per endpoint host so a dead endpoint stops costing retries.
//
//	s := webhook.NewSender(
//	    webhook.WithSigningSecret(cfg.WebhookSigningSecret),
//	    webhook.WithCircuitBreakers(5, 2, time.Minute),
//	)
//	_, err := s.Send(ctx, hook.URL(), payload, webhook.WithDeliveryID(id))
package webhook
