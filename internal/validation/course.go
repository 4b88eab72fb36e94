package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	modeSlugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,99}$`)
	// course-v1:Org+Course+Run or the older Org/Course/Run form.
	courseKeyRegex       = regexp.MustCompile(`^course-v1:[A-Za-z0-9_.~-]+\+[A-Za-z0-9_.~-]+\+[A-Za-z0-9_.~-]+$`)
	legacyCourseKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_.~-]+/[A-Za-z0-9_.~-]+/[A-Za-z0-9_.~-]+$`)
)

const maxCourseKeyLen = 255

// ValidateCourseKey checks a course run key.
func ValidateCourseKey(key string) error {
	if key == "" {
		return fmt.Errorf("course key is required")
	}
	if len(key) > maxCourseKeyLen {
		return fmt.Errorf("course key too long (max %d characters)", maxCourseKeyLen)
	}
	if !courseKeyRegex.MatchString(key) && !legacyCourseKeyRegex.MatchString(key) {
		return fmt.Errorf("course key must look like course-v1:Org+Course+Run")
	}
	return nil
}

// NormalizeModeSlug lowercases and validates a course mode slug such as
// "audit" or "verified".
func NormalizeModeSlug(slug string) (string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !modeSlugRegex.MatchString(slug) {
		return "", fmt.Errorf("mode must be 1-100 characters of lowercase letters, numbers, hyphens and underscores")
	}
	return slug, nil
}
