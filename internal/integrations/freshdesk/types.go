package freshdesk

type Ticket struct {
	ID              int64          `json:"id"`
	Subject         string         `json:"subject"`
	DescriptionText string         `json:"description_text,omitempty"`
	Status          int            `json:"status"`
	Priority        int            `json:"priority"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
	GroupID         *int64         `json:"group_id"`
	RequesterID     int64          `json:"requester_id"`
	ResponderID     *int64         `json:"responder_id"`
	Type            *string        `json:"type"`
	CustomFields    map[string]any `json:"custom_fields,omitempty"`
}

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Agent struct {
	ID        int64        `json:"id"`
	Available bool         `json:"available"`
	Contact   AgentContact `json:"contact"`
}

type AgentContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TicketField struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Статусы тикетов helpdesk-аккаунта (включая кастомные).
var statusNames = map[int]string{
	2:  "Open",
	3:  "Pending",
	4:  "Resolved",
	5:  "Closed",
	6:  "Waiting on Customer",
	7:  "Waiting on Third Party",
	8:  "Pending_2",
	9:  "Reopened",
	12: "Waiting on Collection",
	13: "Waiting on Delivery",
	14: "Waiting on Feedback",
	15: "Waiting on Refund",
	17: "Waiting on Warehouse",
	18: "Custom Status 18",
}

// StatusName returns the display name of a ticket status code, or "Unknown".
func StatusName(code int) string {
	if s, ok := statusNames[code]; ok {
		return s
	}
	return "Unknown"
}

// IsActive reports whether a ticket still needs work (not resolved or closed).
func IsActive(code int) bool {
	_, known := statusNames[code]
	return known && code != 4 && code != 5
}
