package model

// PartyQueue is an ephemeral shared queue that guests append to by code.
type PartyQueue struct {
	Code      string  `json:"code"`
	HostID    string  `json:"hostId"`
	Tracks    []Track `json:"tracks"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}
