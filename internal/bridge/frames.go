package bridge

// ProtocolVersion is reported by /health so clients can detect frame changes.
const ProtocolVersion = 1

// Frame types sent from the server to a session client.
const (
	FrameText         = "text"
	FrameSelect       = "select"
	FrameConfirm      = "confirm"
	FramePreview      = "preview"
	FrameNotice       = "notice"
	FrameDone         = "done"
	FrameAnnouncement = "announcement"
)

// FrameAnswer is the only frame type a session client sends.
const FrameAnswer = "answer"

// Frame is a server to client message. Text, select and confirm frames carry
// an ID the answer must echo.
type Frame struct {
	Type        string        `json:"type"`
	ID          int64         `json:"id,omitempty"`
	Label       string        `json:"label,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Options     []FrameOption `json:"options,omitempty"`
	Max         int           `json:"max,omitempty"`
	Body        string        `json:"body,omitempty"`
	Status      string        `json:"status,omitempty"`
	Kind        string        `json:"kind,omitempty"`
	OrderID     string        `json:"orderId,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// FrameOption is one selectable value of a select frame.
type FrameOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Answer is a client reply to the prompt with the same ID.
type Answer struct {
	Type   string   `json:"type"`
	ID     int64    `json:"id"`
	Text   string   `json:"text,omitempty"`
	Values []string `json:"values,omitempty"`
	Yes    bool     `json:"yes,omitempty"`
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       int    `json:"version"`
	Flows         int    `json:"flows"`
	Subscribers   int    `json:"subscribers"`
	RecentOrders  int    `json:"recentOrders"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// orderView is the JSON shape of GET /orders/{id}.
type orderView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Requester string     `json:"requester"`
	Mode      string     `json:"mode"`
	CreatedAt string     `json:"createdAt"`
	Items     []string   `json:"items"`
	Crafting  []lineView `json:"crafting,omitempty"`
	Research  []lineView `json:"research,omitempty"`
}

type lineView struct {
	Material string `json:"material"`
	Quantity int    `json:"quantity"`
}
