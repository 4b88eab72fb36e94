package database

import "learnhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Course{},
		&models.CourseMode{},
		&models.VerificationDeadline{},
		&models.Enrollment{},
		&models.VerificationAttempt{},
	}
}
