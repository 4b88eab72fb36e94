package models

import (
	"time"

	"learnhub/internal/verification"
)

// VerificationAttempt is a persisted photo verification attempt.
type VerificationAttempt struct {
	ID              uint                       `gorm:"primaryKey" json:"id"`
	ReceiptID       string                     `gorm:"size:36;not null;uniqueIndex" json:"receipt_id"`
	UserID          uint                       `gorm:"not null;index" json:"user_id"`
	User            *User                      `gorm:"foreignKey:UserID" json:"-"`
	Status          verification.AttemptStatus `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	SubmittedAt     *time.Time                 `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time                 `json:"reviewed_at,omitempty"`
	ExpirationDate  *time.Time                 `gorm:"index" json:"expiration_date,omitempty"`
	ReviewingUserID *uint                      `json:"reviewing_user_id,omitempty"`
	ErrorMessage    string                     `gorm:"type:text" json:"error_message,omitempty"`
	FacePhotoHash   string                     `gorm:"size:64" json:"-"`
	FacePhotoFormat string                     `gorm:"size:16" json:"face_photo_format,omitempty"`
	IDPhotoHash     string                     `gorm:"size:64" json:"-"`
	IDPhotoFormat   string                     `gorm:"size:16" json:"id_photo_format,omitempty"`
	HiddenFromUser  bool                       `gorm:"not null" json:"hidden_from_user"`
	CreatedAt       time.Time                  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (VerificationAttempt) TableName() string {
	return "verification_attempts"
}

// ToAttempt returns the state-machine view of the record.
func (v VerificationAttempt) ToAttempt() verification.Attempt {
	return verification.Attempt{
		ID:              v.ID,
		UserID:          v.UserID,
		Status:          v.Status,
		CreatedAt:       v.CreatedAt,
		SubmittedAt:     v.SubmittedAt,
		ReviewedAt:      v.ReviewedAt,
		ExpirationDate:  v.ExpirationDate,
		ReviewingUserID: v.ReviewingUserID,
		ErrorMessage:    v.ErrorMessage,
		HiddenFromUser:  v.HiddenFromUser,
	}
}

// Apply copies the lifecycle fields of a onto the record.
func (v *VerificationAttempt) Apply(a verification.Attempt) {
	v.Status = a.Status
	v.SubmittedAt = a.SubmittedAt
	v.ReviewedAt = a.ReviewedAt
	v.ExpirationDate = a.ExpirationDate
	v.ReviewingUserID = a.ReviewingUserID
	v.ErrorMessage = a.ErrorMessage
	v.HiddenFromUser = a.HiddenFromUser
}

// Attempts converts records for the resolver.
func Attempts(records []VerificationAttempt) []verification.Attempt {
	out := make([]verification.Attempt, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToAttempt())
	}
	return out
}
