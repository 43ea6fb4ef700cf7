package inbound

import "time"

type LogResponse struct {
	ID           int64          `json:"id,string"`
	ActorID      *int64         `json:"actorId,string"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId,omitempty"`
	IP           string         `json:"ip"`
	UserAgent    string         `json:"userAgent"`
	Outcome      string         `json:"outcome"`
	Details      map[string]any `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type LogsResponse struct {
	Logs []LogResponse `json:"logs"`
	// meta
	total int64
	size  int32
	page  int32
}

func (r LogsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}
