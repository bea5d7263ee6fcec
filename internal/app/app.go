// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/november/internal/auth"
	"github.com/hitoshi/november/internal/cliq"
	"github.com/hitoshi/november/internal/comment"
	"github.com/hitoshi/november/internal/config"
	"github.com/hitoshi/november/internal/database"
	"github.com/hitoshi/november/internal/handler"
	"github.com/hitoshi/november/internal/logger"
	"github.com/hitoshi/november/internal/metrics"
	"github.com/hitoshi/november/internal/middleware"
	"github.com/hitoshi/november/internal/notification"
	"github.com/hitoshi/november/internal/rating"
	"github.com/hitoshi/november/internal/repository"
	"github.com/hitoshi/november/internal/signup"
)

// Version はAPIメタデータで公開するバージョン文字列。
const Version = "2.2.0"

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、アクセストークンの定期更新を
// バックグラウンドで開始してからHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	identRepo := repository.NewPostgresIdentityRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	chapterRepo := repository.NewPostgresChapterRepo(db)
	ratingRepo := repository.NewPostgresRatingRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	subscriberRepo := repository.NewPostgresSubscriberRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 認証サービスの初期化
	oauthProvider := auth.NewZohoOAuthProvider(auth.ZohoOAuthConfig{
		ClientID:     cfg.IDPClientID,
		ClientSecret: cfg.IDPClientSecret,
		RedirectURL:  cfg.IDPRedirectURL,
		AccountsURL:  cfg.IDPAccountsURL,
		Timeout:      cfg.ExternalTimeout,
	})
	authService := auth.NewService(
		oauthProvider, userRepo, identRepo, sessionRepo,
		auth.ServiceConfig{
			SessionMaxAge: cfg.SessionMaxAge,
			AdminEmail:    cfg.AdminEmail,
		},
	)

	// 5. ドメインサービスの初期化
	ratingService := rating.NewService(ratingRepo, chapterRepo, collector)
	commentService := comment.NewService(commentRepo, chapterRepo, collector)
	signupService := signup.NewService(subscriberRepo, collector)

	// 6. Cliq通知スタックの初期化
	externalClient := &http.Client{Timeout: cfg.ExternalTimeout}
	tokenManager := cliq.NewTokenManager(externalClient, cliq.TokenManagerConfig{
		AccountsURL:     cfg.IDPAccountsURL,
		ClientID:        cfg.CliqClientID,
		ClientSecret:    cfg.CliqClientSecret,
		RefreshToken:    cfg.CliqRefreshToken,
		RefreshInterval: cfg.TokenRefreshInterval,
	}, slog.Default())
	cliqClient := cliq.NewClient(externalClient, tokenManager, cfg.CliqDomain, slog.Default())
	dispatcher := notification.NewDispatcher(userRepo, cliqClient, collector, slog.Default(), notification.Config{
		MaxConcurrent: cfg.NotifyMaxConcurrent,
		RatePerSec:    cfg.NotifyRatePerSec,
		MaxAttempts:   cfg.NotifyMaxAttempts,
		BackoffBase:   cfg.NotifyBackoffBase,
		ReadURL:       cfg.BaseURL,
	})

	// 7. レート制限の初期化（configはreq/min単位、limiterはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.SignupRate = rate.Limit(float64(cfg.RateLimitSignup) / 60.0)
	rateLimiterCfg.SignupBurst = cfg.RateLimitSignup
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 8. ルーターの構築
	deps := &handler.RouterDeps{
		SessionFinder: sessionRepo,
		RateLimiter:   rateLimiter,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		RatingService:  ratingService,
		CommentService: commentService,
		SignupService:  signupService,
		Notifier:       dispatcher,
		UserFinder:     userRepo,

		Version:        Version,
		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// リカバリーとリクエストログはルーターの外側に適用する
	chain := middleware.NewRecoveryMiddleware()(
		middleware.NewLoggingMiddleware(slog.Default(), collector.RecordHTTPStatus)(router),
	)

	// 9. アクセストークンの定期更新をバックグラウンドで開始
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tokenManager.Start(ctx)

	// 10. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	// トークン更新ループを停止
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
