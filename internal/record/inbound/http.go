package inbound

import (
	"context"

	"github.com/shandysiswandi/medicore/internal/pkg/rbac"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/record/usecase"
)

type uc interface {
	CreateRecord(ctx context.Context, in usecase.CreateRecordInput) (*usecase.Record, error)
	GetRecord(ctx context.Context, in usecase.GetRecordInput) (*usecase.Record, error)
	ListPatientRecords(ctx context.Context, in usecase.ListPatientRecordsInput) ([]usecase.Record, error)

	CreateConsultation(ctx context.Context, in usecase.CreateConsultationInput) (*usecase.Consultation, error)
	GetConsultation(ctx context.Context, in usecase.GetConsultationInput) (*usecase.Consultation, error)
}

// RegisterHTTPEndpoint mounts the record and consultation routes behind the
// role guard. Ownership is decided in the usecase.
func RegisterHTTPEndpoint(r *router.Router, uc uc, enforcer router.Enforcer) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/records", end.CreateRecord, router.Authorize(enforcer, rbac.ObjRecords, rbac.ActCreate))
	r.GET("/records/:id", end.GetRecord, router.Authorize(enforcer, rbac.ObjRecords, rbac.ActRead))
	r.GET("/patients/:id/records", end.ListPatientRecords, router.Authorize(enforcer, rbac.ObjRecords, rbac.ActRead))

	r.POST("/consultations", end.CreateConsultation, router.Authorize(enforcer, rbac.ObjConsultations, rbac.ActCreate))
	r.GET("/consultations/:id", end.GetConsultation, router.Authorize(enforcer, rbac.ObjConsultations, rbac.ActRead))
}
