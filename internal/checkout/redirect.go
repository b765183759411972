package checkout

import (
	"net/url"
	"strconv"
)

// Redirect is the parsed outcome of a provider redirect back to the app.
type Redirect struct {
	Canceled  bool
	Coins     int
	UserID    string
	SessionID string
}

// ParseRedirect interprets query parameters of a post-payment redirect.
//
// The success contract is ?success=true&coins=<int>&userId=<id>&session_id=<id>;
// cancellation is ?canceled=true. Anything else, including a success
// redirect with a missing or malformed parameter, is not a payment redirect
// and yields nil.
func ParseRedirect(q url.Values) *Redirect {
	if q.Get("canceled") == "true" {
		return &Redirect{Canceled: true}
	}
	if q.Get("success") != "true" {
		return nil
	}

	coins, err := strconv.Atoi(q.Get("coins"))
	if err != nil || coins <= 0 {
		return nil
	}
	userID := q.Get("userId")
	sessionID := q.Get("session_id")
	if userID == "" || sessionID == "" {
		return nil
	}

	return &Redirect{Coins: coins, UserID: userID, SessionID: sessionID}
}
