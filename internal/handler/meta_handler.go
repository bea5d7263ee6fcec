package handler

import (
	"net/http"
	"time"
)

// MetaHandler はAPIメタデータ（ルート・ヘルスチェック）のHTTPハンドラー。
type MetaHandler struct {
	version string
}

// NewMetaHandler はMetaHandlerを生成する。
func NewMetaHandler(version string) *MetaHandler {
	return &MetaHandler{version: version}
}

// Health は稼働確認とエンドポイント一覧を返す。
// GET /health
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"message":   "Novel November API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoints": map[string]any{
			"auth": map[string]string{
				"login":    "GET /auth/login",
				"callback": "GET /auth/callback",
				"check":    "GET /auth/check",
				"logout":   "GET /auth/logout",
			},
			"user": map[string]string{
				"getRatings": "GET /getUserRatings",
			},
			"chapters": map[string]string{
				"addRating":  "POST /addRating",
				"getRatings": "GET /getRatings",
			},
			"comments": map[string]string{
				"getComments":   "GET /getComments?chapterId={id}",
				"addComment":    "POST /addComment",
				"deleteComment": "DELETE /deleteComment",
			},
			"email": map[string]string{
				"signup": "POST /signup",
			},
			"notifications": map[string]string{
				"sendCliqNotification": "POST /sendCliqNotification",
			},
			"system": map[string]string{
				"health":  "GET /health",
				"metrics": "GET /metrics",
			},
		},
	})
}

// Root はAPIの概要を返す。
// GET /
func (h *MetaHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Novel November API",
		"version": h.version,
		"endpoints": map[string]string{
			"auth":                 "GET /auth/check, GET /auth/logout",
			"user":                 "GET /getUserRatings",
			"signup":               "POST /signup - Subscribe with email",
			"addRating":            "POST /addRating - Submit chapter rating (one per user per chapter)",
			"getRatings":           "GET /getRatings - Get chapter ratings",
			"comments":             "GET /getComments, POST /addComment, DELETE /deleteComment",
			"sendCliqNotification": "POST /sendCliqNotification - Notify readers (admin only)",
			"health":               "GET /health - Health check",
		},
	})
}
