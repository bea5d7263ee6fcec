package cliq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TokenManagerConfig はアクセストークン管理の設定。
type TokenManagerConfig struct {
	AccountsURL  string // 例: "https://accounts.zoho.in"
	ClientID     string
	ClientSecret string
	RefreshToken string

	// RefreshInterval は定期更新の間隔。未指定の場合は50分。
	RefreshInterval time.Duration
}

// TokenManager はCliq APIのアクセストークンをプロセス内で所有し、
// 定期的なバックグラウンド更新とリクエスト処理からの並行読み取りを
// read-writeロックで調停する。グローバル変数での保持は行わない。
type TokenManager struct {
	config     TokenManagerConfig
	httpClient *http.Client
	logger     *slog.Logger

	mu          sync.RWMutex
	accessToken string
}

// NewTokenManager はTokenManagerの新しいインスタンスを生成する。
func NewTokenManager(httpClient *http.Client, config TokenManagerConfig, logger *slog.Logger) *TokenManager {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 50 * time.Minute
	}
	return &TokenManager{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Token は現在のアクセストークンを返す。更新と並行して安全に呼び出せる。
func (m *TokenManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

// Refresh はrefresh_tokenグラントでアクセストークンを更新する。
func (m *TokenManager) Refresh(ctx context.Context) error {
	data := url.Values{
		"refresh_token": {m.config.RefreshToken},
		"client_id":     {m.config.ClientID},
		"client_secret": {m.config.ClientSecret},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.config.AccountsURL+"/oauth/v2/token", strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("トークン更新リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("トークン更新リクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("トークン更新レスポンスの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("トークン更新がステータス %d を返しました: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return fmt.Errorf("トークン更新レスポンスのパースに失敗しました: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("レスポンスにaccess_tokenが含まれていません")
	}

	m.mu.Lock()
	m.accessToken = tokenResp.AccessToken
	m.mu.Unlock()

	m.logger.Info("アクセストークンを更新しました")
	return nil
}

// Start は定期更新ループを起動する。起動直後に1回更新し、
// 以降はRefreshIntervalごとに更新する。コンテキストがキャンセルされるまで
// 実行を継続するため、専用goroutineで呼び出すこと。
func (m *TokenManager) Start(ctx context.Context) {
	m.logger.Info("トークン更新ループを開始しました",
		slog.Duration("interval", m.config.RefreshInterval),
	)

	if err := m.Refresh(ctx); err != nil {
		m.logger.Error("アクセストークンの初回更新に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("トークン更新ループを停止しました")
			return
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil {
				m.logger.Error("アクセストークンの定期更新に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// compile-time interface check
var _ TokenSource = (*TokenManager)(nil)
