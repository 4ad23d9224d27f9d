package models

import (
	"encoding/json"
	"time"
)

// MSubscriptionStatus is a copy of the subscription state for readers.
type MSubscriptionStatus struct {
	Seq       uint64            `json:"seq"`
	State     SubscriptionState `json:"state"`
	Symbols   []string          `json:"symbols"`
	Pending   []string          `json:"pending,omitempty"`
	TestMode  bool              `json:"testMode"`
	LastError string            `json:"lastError,omitempty"`
}

// MOrderAction is one order button for a symbol.
type MOrderAction struct {
	Reference Reference `json:"reference"`
	Side      Side      `json:"side"`
	Level     *float64  `json:"level,omitempty"`
	Available bool      `json:"available"`
	// Crossed is advisory and only set for custom stops: the price is already
	// through the stop level. It never blocks a submission.
	Crossed bool `json:"crossed"`
}

type MSyncStatus struct {
	Mode      string `json:"mode"`
	Active    bool   `json:"active"`
	LastError string `json:"lastError,omitempty"`
}

// MView is everything the UI renders. It is rebuilt after each change and
// pushed to every connected browser.
type MView struct {
	Subscription   MSubscriptionStatus       `json:"subscription"`
	Sync           MSyncStatus               `json:"sync"`
	Snapshot       *MWatchlistSnapshot       `json:"snapshot"`
	Inputs         map[string]string         `json:"inputs"`
	Actions        map[string][]MOrderAction `json:"actions"`
	Orders         []MOrderRecord            `json:"orders"`
	Positions      []MPositionRecord         `json:"positions"`
	LastOrder      json.RawMessage           `json:"lastOrder,omitempty"`
	LastOrderError string                    `json:"lastOrderError,omitempty"`
	GeneratedAt    time.Time                 `json:"generatedAt"`
}

// MOrderRequest is an order action as sent by the UI or control plane.
// CustomValue may be omitted for CUSTOM/LIMIT to use the stored input.
type MOrderRequest struct {
	Symbol      string   `json:"symbol"`
	Side        string   `json:"side"`
	Reference   string   `json:"reference"`
	CustomValue *float64 `json:"customValue,omitempty"`
}
