package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/medicore/internal/pkg/router"
	"github.com/shandysiswandi/medicore/internal/record/usecase"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
)

type HTTPEndpoint struct {
	uc uc
}

func originOf(r *router.Request) audit.Origin {
	return audit.Origin{IP: r.ClientIP(), UserAgent: r.UserAgent()}
}

// CreateRecord stores a medical record written by the calling doctor.
// @Summary Create medical record
// @Tags Records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRecordRequest true "Record payload"
// @Success 201 {object} router.successResponse{data=CreateRecordResponse} "Created"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 403 {object} router.errorResponse "Insufficient permissions"
// @Failure 404 {object} router.errorResponse "Patient not found"
// @Router /records [post]
func (h *HTTPEndpoint) CreateRecord(r *router.Request) (any, error) {
	var req CreateRecordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	rec, err := h.uc.CreateRecord(r.Context(), usecase.CreateRecordInput{
		PatientID:  req.PatientID,
		RecordType: req.RecordType,
		Title:      req.Title,
		Content:    req.Content,
		Origin:     originOf(r),
	})
	if err != nil {
		return nil, err
	}

	return CreateRecordResponse{Record: toRecordResponse(*rec)}, nil
}

func (h *HTTPEndpoint) GetRecord(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	rec, err := h.uc.GetRecord(r.Context(), usecase.GetRecordInput{ID: id, Origin: originOf(r)})
	if err != nil {
		return nil, err
	}

	return GetRecordResponse{Record: toRecordResponse(*rec)}, nil
}

// ListPatientRecords returns a patient's records visible to the caller.
// @Summary List patient records
// @Tags Records
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {object} router.successResponse{data=ListPatientRecordsResponse} "Records"
// @Failure 403 {object} router.errorResponse "Access denied"
// @Router /patients/{id}/records [get]
func (h *HTTPEndpoint) ListPatientRecords(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	records, err := h.uc.ListPatientRecords(r.Context(), usecase.ListPatientRecordsInput{PatientID: id, Origin: originOf(r)})
	if err != nil {
		return nil, err
	}

	return ListPatientRecordsResponse{Records: lo.Map(records, func(rec usecase.Record, _ int) RecordResponse {
		return toRecordResponse(rec)
	})}, nil
}

func (h *HTTPEndpoint) CreateConsultation(r *router.Request) (any, error) {
	var req CreateConsultationRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	c, err := h.uc.CreateConsultation(r.Context(), usecase.CreateConsultationInput{
		PatientID:   req.PatientID,
		Notes:       req.Notes,
		Attachments: req.Attachments,
		Origin:      originOf(r),
	})
	if err != nil {
		return nil, err
	}

	return CreateConsultationResponse{Consultation: toConsultationResponse(c)}, nil
}

// GetConsultation returns a consultation with short-lived attachment links.
// @Summary Get consultation
// @Tags Consultations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Consultation ID"
// @Success 200 {object} router.successResponse{data=GetConsultationResponse} "Consultation"
// @Failure 403 {object} router.errorResponse "Access denied"
// @Failure 404 {object} router.errorResponse "Consultation not found"
// @Router /consultations/{id} [get]
func (h *HTTPEndpoint) GetConsultation(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	c, err := h.uc.GetConsultation(r.Context(), usecase.GetConsultationInput{ID: id, Origin: originOf(r)})
	if err != nil {
		return nil, err
	}

	return GetConsultationResponse{Consultation: toConsultationResponse(c)}, nil
}
