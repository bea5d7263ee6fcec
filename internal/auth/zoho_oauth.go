package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAccountsURL = "https://accounts.zoho.in"
	authPath           = "/oauth/v2/auth"
	tokenPath          = "/oauth/v2/token"
	userInfoPath       = "/oauth/user/info"
)

// ZohoOAuthConfig はZoho AccountsをIdPとして使用するOAuthプロバイダーの設定。
type ZohoOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// AccountsURL はIdPのベースURL。テスト用にオーバーライド可能。
	AccountsURL string

	// Timeout は外部呼び出しのタイムアウト。未指定の場合は10秒。
	Timeout time.Duration
}

// ZohoOAuthProvider はZoho AccountsによるOAuth 2.0認証を提供する。
// ユーザー管理そのものはIdP側にあり、本サービスはコード交換と
// プロフィール取得のみを行う。
type ZohoOAuthProvider struct {
	config     ZohoOAuthConfig
	httpClient *http.Client
}

// NewZohoOAuthProvider はZohoOAuthProviderを生成する。
func NewZohoOAuthProvider(config ZohoOAuthConfig) *ZohoOAuthProvider {
	if config.AccountsURL == "" {
		config.AccountsURL = defaultAccountsURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &ZohoOAuthProvider{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// GetLoginURL はIdPの認可URLを生成する。
func (p *ZohoOAuthProvider) GetLoginURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {"AaaServer.profile.READ"},
		"state":         {state},
		"access_type":   {"online"},
	}
	return p.config.AccountsURL + authPath + "?" + params.Encode()
}

// zohoTokenResponse はトークンエンドポイントのレスポンス。
type zohoTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// zohoUserInfo はユーザー情報エンドポイントのレスポンス。
type zohoUserInfo struct {
	ZUID      string `json:"ZUID"`
	Email     string `json:"Email"`
	FirstName string `json:"First_Name"`
	LastName  string `json:"Last_Name"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
func (p *ZohoOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	tokenResp, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	userInfo, err := p.fetchUserInfo(ctx, tokenResp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	name := strings.TrimSpace(userInfo.FirstName + " " + userInfo.LastName)

	return &OAuthUserInfo{
		ProviderUserID: userInfo.ZUID,
		Email:          userInfo.Email,
		Name:           name,
		Provider:       "zoho",
	}, nil
}

// exchangeToken は認可コードをアクセストークンに交換する。
func (p *ZohoOAuthProvider) exchangeToken(ctx context.Context, code string) (*zohoTokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.AccountsURL+tokenPath, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp zohoTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &tokenResp, nil
}

// fetchUserInfo はアクセストークンでIdPのユーザー情報を取得する。
func (p *ZohoOAuthProvider) fetchUserInfo(ctx context.Context, accessToken string) (*zohoUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.AccountsURL+userInfoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo zohoUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if userInfo.ZUID == "" {
		return nil, fmt.Errorf("empty ZUID in user info response")
	}

	return &userInfo, nil
}

// compile-time interface check
var _ OAuthProvider = (*ZohoOAuthProvider)(nil)
