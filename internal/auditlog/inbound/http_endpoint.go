package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/medicore/internal/auditlog/entity"
	"github.com/shandysiswandi/medicore/internal/auditlog/usecase"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// ListLogs returns a page of the audit trail.
// @Summary List audit logs
// @Description Returns audit entries, newest first, with optional filters.
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param actorId query string false "Filter by actor ID"
// @Param action query string false "Filter by action (login, read, ...)"
// @Param outcome query string false "Filter by outcome (success|failure|unauthorized)"
// @Param dateFrom query string false "Filter by created_at >= dateFrom (RFC3339)"
// @Param dateTo query string false "Filter by created_at <= dateTo (RFC3339)"
// @Param size query int false "Pagination size"
// @Param page query int false "Pagination page"
// @Success 200 {object} router.successResponse{data=LogsResponse} "Audit logs"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /audit-logs [get]
func (h *HTTPEndpoint) ListLogs(r *router.Request) (any, error) {
	actorID, err := r.GetQueryInt64("actorId")
	if err != nil {
		return nil, err
	}

	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	dateFrom, err := r.GetQueryDate("dateFrom", time.RFC3339)
	if err != nil {
		return nil, err
	}

	dateTo, err := r.GetQueryDate("dateTo", time.RFC3339)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ListLogs(r.Context(), usecase.ListLogsInput{
		ActorID:  actorID,
		Action:   r.GetQuery("action"),
		Outcome:  r.GetQuery("outcome"),
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Page:     page,
		Size:     size,
	})
	if err != nil {
		return nil, err
	}

	return LogsResponse{
		Logs: lo.Map(resp.Logs, func(l entity.Log, _ int) LogResponse {
			return LogResponse{
				ID:           l.ID,
				ActorID:      l.ActorID,
				Action:       l.Action,
				ResourceType: l.ResourceType,
				ResourceID:   l.ResourceID,
				IP:           l.IP,
				UserAgent:    l.UserAgent,
				Outcome:      l.Outcome,
				Details:      l.Details,
				CreatedAt:    l.CreatedAt,
			}
		}),
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
	}, nil
}
