// Package notification は新着章のチャット通知ファンアウトを提供する。
// 宛先解決、並列数制御、レート制限、一時的エラーのリトライを含む。
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/november/internal/cliq"
	"github.com/hitoshi/november/internal/model"
	"github.com/hitoshi/november/internal/repository"
)

// Messenger は通知送信に必要なチャットAPI操作のインターフェース。
// cliq.Clientの部分集合として定義する。
type Messenger interface {
	// ResolveUserID はメールアドレスから宛先IDを解決する。
	ResolveUserID(ctx context.Context, email string) (string, error)
	// SendMessage は指定宛先にメッセージを送信する。
	SendMessage(ctx context.Context, userID, text string) error
}

// MetricsRecorder は通知ディスパッチャーが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordNotificationSent()
	RecordNotificationFailed(reason string)
	RecordDispatchLatency(d time.Duration)
}

// Result は1宛先への送信結果を表す。
type Result struct {
	Email  string `json:"email"`
	UserID string `json:"userId,omitempty"`
	Status string `json:"status"` // "success" または "failed"
	Reason string `json:"reason,omitempty"`
}

// Summary はファンアウト全体の結果を表す。
type Summary struct {
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Total   int      `json:"total"`
	Details []Result `json:"details"`
}

// Config はディスパッチャーの設定。
type Config struct {
	MaxConcurrent int           // 同時送信数の上限。0以下の場合は3
	RatePerSec    float64       // 全送信合計のレート上限（req/sec）。0以下の場合は2
	MaxAttempts   int           // 1宛先あたりの最大試行回数。0以下の場合は3
	BackoffBase   time.Duration // リトライの初回バックオフ
	ReadURL       string        // 通知メッセージに含める閲覧URL
}

// Dispatcher は登録済み読者への通知ファンアウトを実行する。
// 送信はワーカープール（semaphoreパターン）で並列化し、全ワーカーで共有する
// トークンバケットが外部APIのレート上限を合計で守る。1宛先の失敗は記録のみで、
// 残りの送信を中断しない。
type Dispatcher struct {
	userRepo  repository.UserRepository
	messenger Messenger
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   MetricsRecorder
	config    Config
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
func NewDispatcher(
	userRepo repository.UserRepository,
	messenger Messenger,
	metrics MetricsRecorder,
	logger *slog.Logger,
	config Config,
) *Dispatcher {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 3
	}
	if config.RatePerSec <= 0 {
		config.RatePerSec = 2
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = defaultBackoffBase
	}
	return &Dispatcher{
		userRepo:  userRepo,
		messenger: messenger,
		limiter:   rate.NewLimiter(rate.Limit(config.RatePerSec), 1),
		logger:    logger,
		metrics:   metrics,
		config:    config,
	}
}

// NotifyChapter は全登録読者に新着章の通知を送信し、宛先ごとの結果を返す。
func (d *Dispatcher) NotifyChapter(ctx context.Context, chapterNumber int) (*Summary, error) {
	start := time.Now()

	users, err := d.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	summary := &Summary{Total: len(users), Details: make([]Result, len(users))}
	if len(users) == 0 {
		return summary, nil
	}

	message := fmt.Sprintf("*New Chapter Alert!*\n\nChapter %d is now live! 🎉\n\nRead it now at: %s",
		chapterNumber, d.config.ReadURL)

	d.logger.Info("通知ファンアウトを開始します",
		slog.Int("chapter_number", chapterNumber),
		slog.Int("recipient_count", len(users)),
		slog.Int("max_concurrent", d.config.MaxConcurrent),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, d.config.MaxConcurrent)
	var wg sync.WaitGroup

	for i, user := range users {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, u *model.User) {
			defer wg.Done()
			defer func() { <-sem }()

			summary.Details[idx] = d.notifyOne(ctx, u, message)
		}(i, user)
	}

	wg.Wait()

	for _, result := range summary.Details {
		if result.Status == "success" {
			summary.Sent++
		} else {
			summary.Failed++
		}
	}

	duration := time.Since(start)
	d.metrics.RecordDispatchLatency(duration)
	d.logger.Info("通知ファンアウトが完了しました",
		slog.Int("chapter_number", chapterNumber),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return summary, nil
}

// notifyOne は1宛先への解決と送信を行う。失敗は結果として返すのみで、
// エラーを伝播しない。
func (d *Dispatcher) notifyOne(ctx context.Context, user *model.User, message string) Result {
	userID, err := d.messenger.ResolveUserID(ctx, user.Email)
	if err != nil {
		reason := "resolve failed"
		if errors.Is(err, cliq.ErrUserNotResolved) {
			reason = "no messaging account"
		}
		d.metrics.RecordNotificationFailed(reason)
		d.logger.Warn("宛先の解決に失敗しました",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return Result{Email: user.Email, Status: "failed", Reason: reason}
	}

	if err := d.sendWithRetry(ctx, userID, message); err != nil {
		d.metrics.RecordNotificationFailed("send failed")
		d.logger.Warn("通知の送信に失敗しました",
			slog.String("email", user.Email),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return Result{Email: user.Email, UserID: userID, Status: "failed", Reason: err.Error()}
	}

	d.metrics.RecordNotificationSent()
	return Result{Email: user.Email, UserID: userID, Status: "success"}
}

// sendWithRetry はレート制限を守りながら送信し、一時的エラーのみ
// 指数バックオフでリトライする。
func (d *Dispatcher) sendWithRetry(ctx context.Context, userID, message string) error {
	var lastErr error

	for attempt := 0; attempt < d.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(Backoff(d.config.BackoffBase, attempt-1)):
			}
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = d.messenger.SendMessage(ctx, userID, message)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("send failed after %d attempts: %w", d.config.MaxAttempts, lastErr)
}
