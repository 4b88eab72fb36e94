package cache

import (
	"fmt"
	"time"
)

const (
	DashboardKeyPrefix = "dashboard:%d"
	AttemptsKeyPrefix  = "verification:attempts:%d"
)

const (
	DashboardTTL = 2 * time.Minute
	AttemptsTTL  = 5 * time.Minute
)

// DashboardKey caches the resolved dashboard of one learner.
func DashboardKey(userID uint) string {
	return fmt.Sprintf(DashboardKeyPrefix, userID)
}

// AttemptsKey caches the attempt history of one learner.
func AttemptsKey(userID uint) string {
	return fmt.Sprintf(AttemptsKeyPrefix, userID)
}

// LearnerKeys lists every key derived from a learner's verification state.
func LearnerKeys(userID uint) []string {
	return []string{DashboardKey(userID), AttemptsKey(userID)}
}
