package entity

import "time"

// MedicalRecord is a record with its content already decrypted.
type MedicalRecord struct {
	ID                int64
	PatientID         int64
	DoctorID          int64
	RecordType        string
	Title             string
	Content           map[string]any
	EncryptionVersion int
	CreatedAt         time.Time
}

// Consultation is a consultation with notes and attachment keys already
// decrypted.
type Consultation struct {
	ID                int64
	PatientID         int64
	DoctorID          int64
	Notes             string
	Attachments       []string
	EncryptionVersion int
	CreatedAt         time.Time
}

// Ownership names the patient and doctor a row belongs to. It is read from
// plaintext columns so access can be decided before anything is decrypted.
type Ownership struct {
	PatientID int64
	DoctorID  int64
}

// Party is the minimal view of a user that ownership checks need.
type Party struct {
	ID   int64
	Role string
}
