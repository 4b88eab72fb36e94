package models

import "time"

// Course is a course run learners can enroll in.
type Course struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	Key         string                `gorm:"column:course_key;size:255;not null;uniqueIndex" json:"key"`
	DisplayName string                `gorm:"size:255" json:"display_name"`
	Modes       []CourseMode          `gorm:"foreignKey:CourseID" json:"modes,omitempty"`
	Deadline    *VerificationDeadline `gorm:"foreignKey:CourseID" json:"verification_deadline,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Course) TableName() string {
	return "courses"
}

// CourseMode is a purchasable track of a course, such as audit or verified.
type CourseMode struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	CourseID           uint       `gorm:"not null;uniqueIndex:idx_course_mode_slug" json:"course_id"`
	Slug               string     `gorm:"size:100;not null;uniqueIndex:idx_course_mode_slug" json:"slug"`
	ExpirationDatetime *time.Time `json:"expiration_datetime"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (CourseMode) TableName() string {
	return "course_modes"
}

// VerificationDeadline is the per-course date by which verified learners must
// hold a valid verification. A course without a row has no deadline.
type VerificationDeadline struct {
	CourseID           uint      `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	Deadline           time.Time `gorm:"not null" json:"deadline"`
	DeadlineIsExplicit bool      `gorm:"not null" json:"deadline_is_explicit"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (VerificationDeadline) TableName() string {
	return "verification_deadlines"
}
