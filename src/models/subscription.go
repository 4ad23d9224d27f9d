package models

import "encoding/json"

// SubscriptionState is the lifecycle of the active watchlist.
type SubscriptionState int

const (
	StateIdle SubscriptionState = iota
	StateSubscribing
	StateSubscribed
	StateFailed
)

func (s SubscriptionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

func (s SubscriptionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MSubscribeRequest is the body of POST /api/watchlist on the backend.
type MSubscribeRequest struct {
	Symbols  []string `json:"symbols"`
	TestMode bool     `json:"testMode"`
}
