// Package cliq はZoho CliqチャットAPIとの連携を提供する。
// メールアドレスからの宛先解決、DM送信、アクセストークンの管理を含む。
package cliq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// ErrUserNotResolved は指定メールアドレスに対応するCliqユーザーが存在しない場合に返す。
var ErrUserNotResolved = errors.New("cliq user not resolved")

// APIStatusError はCliq APIが2xx以外を返した場合のエラー。
// ステータスコードを保持し、呼び出し元がリトライ可否を判断する。
type APIStatusError struct {
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *APIStatusError) Error() string {
	return fmt.Sprintf("cliq API returned status %d", e.StatusCode)
}

// TokenSource はAPI呼び出しに使用するアクセストークンの供給インターフェース。
// 実装はTokenManagerが提供し、ハンドラーがトークン値を直接扱うことはない。
type TokenSource interface {
	Token() string
}

// Client はCliq APIのクライアント。
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	domain     string // 例: "https://cliq.zoho.in"
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, tokens TokenSource, domain string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		domain:     domain,
	}
}

// ResolveUserID はメールアドレスからCliqのユーザーIDを解決する。
// ユーザーが見つからない場合はErrUserNotResolvedを返す。
func (c *Client) ResolveUserID(ctx context.Context, email string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v2/users/%s", c.domain, url.PathEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.tokens.Token())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrUserNotResolved
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if result.ID == "" {
		return "", ErrUserNotResolved
	}

	return result.ID, nil
}

// SendMessage は指定ユーザーにDMを送信する。
func (c *Client) SendMessage(ctx context.Context, userID, text string) error {
	endpoint := fmt.Sprintf("%s/api/v2/chats/%s/message", c.domain, url.PathEscape(userID))

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("ペイロードのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.tokens.Token())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Cliq DM送信がエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("user_id", userID),
		)
		return &APIStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil
}
