package inbound

import (
	"context"

	"github.com/shandysiswandi/medicore/internal/auditlog/usecase"
	"github.com/shandysiswandi/medicore/internal/pkg/rbac"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
)

type uc interface {
	ListLogs(ctx context.Context, in usecase.ListLogsInput) (*usecase.ListLogsOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, enforcer router.Enforcer) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/audit-logs", end.ListLogs, router.Authorize(enforcer, rbac.ObjAuditLogs, rbac.ActRead))
}
