package notification

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hitoshi/november/internal/cliq"
)

const (
	// defaultBackoffBase は指数バックオフの初回遅延。
	defaultBackoffBase = 500 * time.Millisecond
	// maxBackoff は指数バックオフの最大遅延。
	maxBackoff = 10 * time.Second
	// defaultMaxAttempts は1宛先あたりの最大送信試行回数。
	defaultMaxAttempts = 3
)

// IsTransient は送信エラーがリトライに値するかを判定する。
// 429/5xxとネットワークエラーは一時的、その他の4xxと宛先未解決、
// コンテキストキャンセルは恒久的として扱う。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, cliq.ErrUserNotResolved) {
		return false
	}

	var apiErr *cliq.APIStatusError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}

	// ステータスコードを持たないエラーはネットワーク起因とみなしてリトライする
	return true
}

// Backoff は試行回数（0始まり）に基づいて指数バックオフ遅延を計算する。
// base、2×base、4×base…と増加し、maxBackoffで頭打ちになる。
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = defaultBackoffBase
	}
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
