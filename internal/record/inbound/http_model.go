package inbound

import (
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/medicore/internal/record/usecase"
)

type RecordResponse struct {
	ID         int64          `json:"id,string"`
	PatientID  int64          `json:"patientId,string"`
	DoctorID   int64          `json:"doctorId,string"`
	RecordType string         `json:"recordType"`
	Title      string         `json:"title"`
	Content    map[string]any `json:"content"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func toRecordResponse(r usecase.Record) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		PatientID:  r.PatientID,
		DoctorID:   r.DoctorID,
		RecordType: r.RecordType,
		Title:      r.Title,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
	}
}

type CreateRecordRequest struct {
	PatientID  int64          `json:"patientId,string"`
	RecordType string         `json:"recordType"`
	Title      string         `json:"title"`
	Content    map[string]any `json:"content"`
}

type CreateRecordResponse struct {
	Record RecordResponse `json:"record"`
}

func (CreateRecordResponse) Message() string {
	return "Medical record created successfully"
}

func (CreateRecordResponse) StatusCode() int {
	return http.StatusCreated
}

type GetRecordResponse struct {
	Record RecordResponse `json:"record"`
}

type ListPatientRecordsResponse struct {
	Records []RecordResponse `json:"records"`
}

func (r ListPatientRecordsResponse) Meta() map[string]any {
	return map[string]any{"total": len(r.Records)}
}

type AttachmentResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ConsultationResponse struct {
	ID          int64                `json:"id,string"`
	PatientID   int64                `json:"patientId,string"`
	DoctorID    int64                `json:"doctorId,string"`
	Notes       string               `json:"notes"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func toConsultationResponse(c *usecase.Consultation) ConsultationResponse {
	return ConsultationResponse{
		ID:        c.ID,
		PatientID: c.PatientID,
		DoctorID:  c.DoctorID,
		Notes:     c.Notes,
		Attachments: lo.Map(c.Attachments, func(a usecase.Attachment, _ int) AttachmentResponse {
			return AttachmentResponse{Key: a.Key, URL: a.URL}
		}),
		CreatedAt: c.CreatedAt,
	}
}

type CreateConsultationRequest struct {
	PatientID   int64    `json:"patientId,string"`
	Notes       string   `json:"notes"`
	Attachments []string `json:"attachments"`
}

type CreateConsultationResponse struct {
	Consultation ConsultationResponse `json:"consultation"`
}

func (CreateConsultationResponse) Message() string {
	return "Consultation created successfully"
}

func (CreateConsultationResponse) StatusCode() int {
	return http.StatusCreated
}

type GetConsultationResponse struct {
	Consultation ConsultationResponse `json:"consultation"`
}
