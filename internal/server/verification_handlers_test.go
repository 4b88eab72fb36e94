package server

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/internal/models"
	"learnhub/internal/verification"
)

func photoPNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 3), B: uint8(y * 3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (e *testEnv) uploadPhotos(t *testing.T, token string, attemptID uint, face, id []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for field, content := range map[string][]byte{"face": face, "id": id} {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="%s.png"`, field, field))
		h.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/verifications/%d/photos", attemptID), &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) seededAttempt(t *testing.T, username string) models.VerificationAttempt {
	t.Helper()
	var rec models.VerificationAttempt
	require.NoError(t, e.db.Where("user_id = ?", e.seeded.Users[username].ID).
		Order("created_at DESC").First(&rec).Error)
	return rec
}

func TestVerificationFlow_StartUploadSubmitApprove(t *testing.T) {
	env := newTestEnv(t)
	learner := env.tokenFor(t, "need_to_verify")
	reviewer := env.tokenFor(t, "reviewer")

	resp := env.do(t, http.MethodPost, "/api/verifications", learner, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var attempt models.VerificationAttempt
	decodeJSON(t, resp, &attempt)
	assert.Equal(t, verification.AttemptCreated, attempt.Status)
	assert.NotEmpty(t, attempt.ReceiptID)

	resp = env.uploadPhotos(t, learner, attempt.ID, photoPNG(t, 10), photoPNG(t, 200))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &attempt)
	assert.Equal(t, verification.AttemptReady, attempt.Status)
	assert.Equal(t, "png", attempt.FacePhotoFormat)

	status, _ := env.dashboard(t, "need_to_verify").statusOf(demoCourse)
	assert.Equal(t, "verify_need_to_verify", status)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/verifications/%d/submit", attempt.ID), learner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &attempt)
	assert.Equal(t, verification.AttemptSubmitted, attempt.Status)

	status, _ = env.dashboard(t, "need_to_verify").statusOf(demoCourse)
	assert.Equal(t, "verify_submitted", status)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/approve", attempt.ID), reviewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &attempt)
	assert.Equal(t, verification.AttemptApproved, attempt.Status)
	require.NotNil(t, attempt.ReviewingUserID)
	assert.Equal(t, env.seeded.Users["reviewer"].ID, *attempt.ReviewingUserID)

	status, _ = env.dashboard(t, "need_to_verify").statusOf(demoCourse)
	assert.Equal(t, "verify_approved", status)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/approve", attempt.ID), reviewer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadPhotos_Rejections(t *testing.T) {
	env := newTestEnv(t)
	learner := env.tokenFor(t, "need_to_verify")

	resp := env.do(t, http.MethodPost, "/api/verifications", learner, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var attempt models.VerificationAttempt
	decodeJSON(t, resp, &attempt)

	same := photoPNG(t, 42)
	resp = env.uploadPhotos(t, learner, attempt.ID, same, same)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.uploadPhotos(t, learner, attempt.ID, []byte("not an image at all"), photoPNG(t, 1))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	other := env.tokenFor(t, "auditor")
	resp = env.uploadPhotos(t, other, attempt.ID, photoPNG(t, 1), photoPNG(t, 2))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/verifications/abc/photos", nil)
	req.Header.Set("Authorization", "Bearer "+learner)
	raw, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = raw.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestSubmitVerification_InvalidTransition(t *testing.T) {
	env := newTestEnv(t)
	learner := env.tokenFor(t, "need_to_verify")

	resp := env.do(t, http.MethodPost, "/api/verifications", learner, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var attempt models.VerificationAttempt
	decodeJSON(t, resp, &attempt)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/verifications/%d/submit", attempt.ID), learner, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body models.ErrorResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, models.CodeConflict, body.Code)
}

func TestReviewerDenyAndSystemError(t *testing.T) {
	env := newTestEnv(t)
	reviewer := env.tokenFor(t, "reviewer")
	submitted := env.seededAttempt(t, "submitted")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/deny", submitted.ID), reviewer, DenyRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/deny", submitted.ID), reviewer,
		DenyRequest{Reason: "ID photo is blurry"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var attempt models.VerificationAttempt
	decodeJSON(t, resp, &attempt)
	assert.Equal(t, verification.AttemptDenied, attempt.Status)
	assert.Equal(t, "ID photo is blurry", attempt.ErrorMessage)

	status, _ := env.dashboard(t, "submitted").statusOf(demoCourse)
	assert.Equal(t, "", status)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/error", submitted.ID), reviewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &attempt)
	assert.Equal(t, verification.AttemptMustRetry, attempt.Status)

	resp = env.do(t, http.MethodPost, "/api/admin/verifications/99999/approve", reviewer, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	learner := env.tokenFor(t, "submitted")
	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/approve", submitted.ID), learner, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetMyVerifications(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/verifications/me", env.tokenFor(t, "resubmitted"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var attempts []models.VerificationAttempt
	decodeJSON(t, resp, &attempts)
	require.Len(t, attempts, 2)
	assert.Equal(t, verification.AttemptSubmitted, attempts[0].Status)
	assert.Equal(t, verification.AttemptApproved, attempts[1].Status)

	resp = env.do(t, http.MethodGet, "/api/verifications/me", env.tokenFor(t, "auditor"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &attempts)
	assert.Empty(t, attempts)
}
