// Package pubsub carries marketplace events between services.
//
// Events travel as push envelopes:
//
//	{
//	  "message": {
//	    "data": "<base64 JSON payload>",
//	    "attributes": {"event": "funding_request.promising", "id_user": "..."},
//	    "messageId": "...",
//	    "publish_time": "..."
//	  },
//	  "subscription": "..."
//	}
//
// Middleware unwraps envelopes pushed over HTTP so handlers read the payload
// directly and find the envelope with FromContext. Publisher and Subscriber
// move the same envelopes over Redis pub/sub.
package pubsub
