package telemetry

// Notification kinds published by ingestion.
const (
	TypeLap       = "lap"
	TypeStandings = "standings"
)

// Notification is one live update. Data is rendered as the SSE data line.
type Notification struct {
	ID   int64                  `json:"id,omitempty"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// stringField returns Data[key] as a string, or "" when absent.
func (n Notification) stringField(key string) string {
	if v, ok := n.Data[key].(string); ok {
		return v
	}
	return ""
}

// intField returns Data[key] as an int64, or 0 when absent.
func (n Notification) intField(key string) int64 {
	switch v := n.Data[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func (n Notification) boolField(key string) bool {
	v, _ := n.Data[key].(bool)
	return v
}
