package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"review-notify-backend/config"
	"review-notify-backend/internal/db"
	"review-notify-backend/internal/hub"
	"review-notify-backend/internal/model"
	"review-notify-backend/internal/notifier"
	"review-notify-backend/internal/store"
)

func setupRouter(t *testing.T) (*gin.Engine, store.Store, *notifier.Dispatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	s := store.NewGormStore(gormDB)
	h := hub.NewHub()
	d := notifier.NewDispatcher(s, h, nil)
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000}
	return NewRouter(cfg, s, h, d, &webpush.Options{VAPIDPublicKey: "test-public-key"}), s, d
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterDeviceToken(t *testing.T) {
	router, s, _ := setupRouter(t)
	userID := uuid.New()

	w := doJSON(router, "POST", "/api/device-tokens", map[string]any{
		"user_id":  userID,
		"token":    "tok-abc",
		"platform": "android",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	tokens, err := s.DeviceTokensFor(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "tok-abc", tokens[0].Token)
}

func TestRegisterDeviceTokenRejectsBadPlatform(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := doJSON(router, "POST", "/api/device-tokens", map[string]any{
		"user_id":  uuid.New(),
		"token":    "tok-abc",
		"platform": "blackberry",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "POST", "/api/device-tokens", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveDeviceToken(t *testing.T) {
	router, s, _ := setupRouter(t)
	userID := uuid.New()
	_, err := s.UpsertDeviceToken(context.Background(), userID, "tok-del", model.PlatformIOS)
	require.NoError(t, err)

	w := doJSON(router, "DELETE", "/api/device-tokens", map[string]any{"token": "tok-del"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	tokens, err := s.DeviceTokensFor(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := doJSON(router, "GET", "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())
}

func TestUnreadCountEndpoint(t *testing.T) {
	router, _, d := setupRouter(t)

	recipient := uuid.New()
	n := d.Notify(context.Background(), notifier.Candidate{
		RecipientID: recipient,
		Type:        model.TypeReviewLike,
		SenderID:    uuid.New(),
	})
	require.NotNil(t, n)

	w := doJSON(router, "GET", "/api/users/"+recipient.String()+"/unread-count", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, w.Body.String())

	w = doJSON(router, "GET", "/api/users/not-a-uuid/unread-count", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkReadEndpoint(t *testing.T) {
	router, s, d := setupRouter(t)

	recipient := uuid.New()
	n := d.Notify(context.Background(), notifier.Candidate{
		RecipientID: recipient,
		Type:        model.TypeCommentReply,
		SenderID:    uuid.New(),
	})
	require.NotNil(t, n)

	path := fmt.Sprintf("/api/notifications/%d/read?user_id=%s", n.ID, recipient)
	w := doJSON(router, "PUT", path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, s.UnreadCount(context.Background(), recipient))

	// Unknown record for this owner.
	w = doJSON(router, "PUT", fmt.Sprintf("/api/notifications/%d/read?user_id=%s", n.ID, uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, "PUT", "/api/notifications/abc/read?user_id="+recipient.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListNotificationsEndpoint(t *testing.T) {
	router, _, d := setupRouter(t)

	recipient := uuid.New()
	for i := 0; i < 3; i++ {
		require.NotNil(t, d.Notify(context.Background(), notifier.Candidate{
			RecipientID: recipient,
			Type:        model.TypeReviewComment,
			SenderID:    uuid.New(),
		}))
	}
	require.NotNil(t, d.Notify(context.Background(), notifier.Candidate{
		RecipientID: recipient,
		Type:        model.TypeNewsLike,
		SenderID:    uuid.New(),
	}))

	w := doJSON(router, "GET", "/api/users/"+recipient.String()+"/notifications?page=1&limit=2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Notifications []model.Notification `json:"notifications"`
		Total         int64                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(4), resp.Total)
	assert.Len(t, resp.Notifications, 2)

	w = doJSON(router, "GET", "/api/users/"+recipient.String()+"/notifications?type=news_like", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Notifications, 1)

	w = doJSON(router, "GET", "/api/users/"+recipient.String()+"/notifications/unread", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServeWSRejectsMalformedIdentity(t *testing.T) {
	router, _, _ := setupRouter(t)

	req, _ := http.NewRequest("GET", "/ws/notifications/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
