// Package signup はメールアドレスによる購読登録を提供する。
package signup

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/november/internal/model"
	"github.com/hitoshi/november/internal/repository"
)

// emailPattern は空白を含まない user@domain.tld 形式のみを受け付ける。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalidEmail はメールアドレスの形式が不正な場合に返す。
var ErrInvalidEmail = fmt.Errorf("invalid email format")

// MetricsRecorder は購読登録サービスが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordSignup()
}

// Service は購読登録に関するビジネスロジックを提供する。
type Service struct {
	subscriberRepo repository.SubscriberRepository
	metrics        MetricsRecorder
}

// NewService はServiceを生成する。
func NewService(subscriberRepo repository.SubscriberRepository, metrics MetricsRecorder) *Service {
	return &Service{
		subscriberRepo: subscriberRepo,
		metrics:        metrics,
	}
}

// Register はメールアドレスを正規化・検証して購読者として登録する。
// メールアドレスは小文字に正規化して保存するため、一意性は大文字小文字を
// 区別しない。登録済みの場合はmodel.ErrDuplicateSubscriberを返す。
func (s *Service) Register(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}

	subscriber := &model.Subscriber{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now(),
	}

	if err := s.subscriberRepo.Create(ctx, subscriber); err != nil {
		return "", err
	}

	s.metrics.RecordSignup()
	slog.Info("subscriber registered", slog.String("email", email))

	return email, nil
}
