package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// newZohoTestServer はトークン交換とユーザー情報取得の両エンドポイントを
// 提供するテストサーバーを返す。
func newZohoTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token endpoint: method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %s, want authorization_code", got)
		}
		if got := r.PostForm.Get("code"); got != "auth-code-1" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-xyz","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/oauth/user/info", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Zoho-oauthtoken at-xyz" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ZUID":"10001","Email":"reader@example.com","First_Name":"Hana","Last_Name":"Sato"}`))
	})
	return httptest.NewServer(mux)
}

func newTestProvider(accountsURL string) *ZohoOAuthProvider {
	return NewZohoOAuthProvider(ZohoOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/auth/callback",
		AccountsURL:  accountsURL,
	})
}

func TestGetLoginURL_Params(t *testing.T) {
	p := newTestProvider("https://accounts.example.com")

	loginURL := p.GetLoginURL("state-abc")

	u, err := url.Parse(loginURL)
	if err != nil {
		t.Fatalf("failed to parse login URL: %v", err)
	}
	if u.Path != "/oauth/v2/auth" {
		t.Errorf("path = %s, want /oauth/v2/auth", u.Path)
	}
	q := u.Query()
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %s", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://app.example.com/auth/callback" {
		t.Errorf("redirect_uri = %s", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %s", q.Get("response_type"))
	}
	if q.Get("state") != "state-abc" {
		t.Errorf("state = %s", q.Get("state"))
	}
}

func TestExchangeCode(t *testing.T) {
	server := newZohoTestServer(t)
	defer server.Close()

	p := newTestProvider(server.URL)

	info, err := p.ExchangeCode(context.Background(), "auth-code-1")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}
	if info.ProviderUserID != "10001" {
		t.Errorf("ProviderUserID = %s, want 10001", info.ProviderUserID)
	}
	if info.Email != "reader@example.com" {
		t.Errorf("Email = %s", info.Email)
	}
	if info.Name != "Hana Sato" {
		t.Errorf("Name = %s, want Hana Sato", info.Name)
	}
	if info.Provider != "zoho" {
		t.Errorf("Provider = %s, want zoho", info.Provider)
	}
}

func TestExchangeCode_InvalidCode(t *testing.T) {
	server := newZohoTestServer(t)
	defer server.Close()

	p := newTestProvider(server.URL)

	if _, err := p.ExchangeCode(context.Background(), "wrong-code"); err == nil {
		t.Error("expected error for rejected authorization code")
	}
}

func TestExchangeCode_EmptyAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	_, err := p.ExchangeCode(context.Background(), "code")
	if err == nil {
		t.Fatal("expected error for missing access token")
	}
	if !strings.Contains(err.Error(), "empty access token") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExchangeCode_MissingZUID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-1"}`))
	})
	mux.HandleFunc("/oauth/user/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Email":"reader@example.com"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := newTestProvider(server.URL)

	if _, err := p.ExchangeCode(context.Background(), "code"); err == nil {
		t.Error("expected error when the IdP response lacks a user ID")
	}
}
