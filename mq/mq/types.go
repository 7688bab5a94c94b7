package mq

import (
	"time"

	"github.com/google/uuid"
)

type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
	ActionEnrich
	ActionCnt
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionEnrich:
		return "enrich"
	}
	return "unknown"
}

// Mode selects the message queue backend at startup.
type Mode string

const (
	ModeGoChan    Mode = "go_chan"
	ModeRabbit    Mode = "rabbitmq"
	ModeGCPPubSub Mode = "gcp_pub_sub"
)

// TripEvent is published whenever the trip collection changes. Enrichment
// completion is an ActionEnrich event; consumers can use Changed to see
// which fields an update touched.
type TripEvent struct {
	TripID  uuid.UUID
	OwnerID string
	Name    string
	Changed []string
	At      time.Time
}
