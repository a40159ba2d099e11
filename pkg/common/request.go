package common

import "time"

// PositionOpenRequest is the payload of position.open.
type PositionOpenRequest struct {
	SignalId  string      `json:"signalId,omitempty"`
	Exchange  string      `json:"exchange"`
	Market    string      `json:"market"`
	TimeStamp time.Time   `json:"ts"`
	Entries   []EntrySpec `json:"entries"`
	Exits     []ExitSpec  `json:"exits"`
}

// PositionCloseRequest is the payload of position.close.
type PositionCloseRequest struct {
	Id        string    `json:"id"`
	TimeStamp time.Time `json:"ts"`
}

// PositionCloseAllRequest is the payload of position.closeAll.
type PositionCloseAllRequest struct {
	TimeStamp time.Time `json:"ts"`
}
