// Package delivery turns a notification into a request on a user's channel.
//
// A Router holds one Deliverer per channel type:
//
//	r := delivery.NewRouter().
//	    Register(channel.TypeWebhook, delivery.NewWebhook(sender)).
//	    Register(channel.TypeIFTTT, delivery.NewIFTTT(sender, "")).
//	    Register(channel.TypeWhatsApp, delivery.NewWhatsApp(cloudAPI))
//
// Webhook channels receive the Payload as JSON. IFTTT channels trigger a
// maker applet with value1..value3. WhatsApp channels get Payload.Text.
package delivery
