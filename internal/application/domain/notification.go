package domain

// Notification is a user-facing alert delivered over SSE and push.
type Notification struct {
	Event string
	Title string
	Body  string
	Link  string
	Data  map[string]interface{}
}
