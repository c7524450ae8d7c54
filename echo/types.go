package echo

import "time"

// Cache namespaces (method names) for the echo RPCs.
const (
	MethodUnaryEcho  = "unary_echo"
	MethodRecordEcho = "record_echo"
	MethodListEchoes = "list_echoes"
	MethodGetEcho    = "get_echo"
)

// Request limits.
const (
	MaxMessageLength      = 1024
	MaxOrganizerKeyLength = 128
	DefaultListLimit      = 50
	MaxListLimit          = 100
)

// OrganizerKeyField is the JSON name of the owner filter in list requests.
const OrganizerKeyField = "organizerKey"

type UnaryEchoRequest struct {
	Message string `json:"message"`
}

type UnaryEchoResponse struct {
	Message string `json:"message"`
}

// Record is a persisted echo.
type Record struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	OrganizerKey string    `json:"organizerKey"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RecordEchoRequest persists a message. An empty OrganizerKey defaults to
// the authenticated principal.
type RecordEchoRequest struct {
	Message      string `json:"message"`
	OrganizerKey string `json:"organizerKey,omitempty"`
}

type RecordEchoResponse struct {
	Record Record `json:"record"`
}

// ListFilters narrows a ListEchoes call.
type ListFilters struct {
	OrganizerKey string `json:"organizerKey"`
}

// ListEchoesRequest lists an organizer's records, newest first. A zero
// Limit means DefaultListLimit.
type ListEchoesRequest struct {
	Filters ListFilters `json:"filters"`
	Limit   int         `json:"limit"`
}

type ListEchoesResponse struct {
	Records []Record `json:"records"`
}

type GetEchoRequest struct {
	ID string `json:"id"`
}

type GetEchoResponse struct {
	Record Record `json:"record"`
}
