package history

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"saplayer-checkout/internal/domain/session"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ErrMissingBuyerID 購入者IDが指定されていないエラー
var ErrMissingBuyerID = errors.New("buyer id is required")

// HistoryApplicationService 決済履歴アプリケーションサービス
type HistoryApplicationService struct {
	sessions session.SessionRepository
	logger   *otelinfra.Logger
	tracer   trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(sessions session.SessionRepository, logger *otelinfra.Logger) *HistoryApplicationService {
	return &HistoryApplicationService{
		sessions: sessions,
		logger:   logger,
		tracer:   otel.Tracer("history-service"),
	}
}

// GetCheckoutHistory 購入者の決済セッション履歴を新しい順で返す
func (s *HistoryApplicationService) GetCheckoutHistory(ctx context.Context, query GetCheckoutHistoryQuery) (*CheckoutHistoryResult, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetCheckoutHistory")
	defer span.End()

	if query.BuyerID == "" {
		span.SetStatus(otelcodes.Error, ErrMissingBuyerID.Error())
		return nil, ErrMissingBuyerID
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	span.SetAttributes(
		attribute.String("buyer_id", query.BuyerID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	sessions, err := s.sessions.FindByBuyerID(ctx, query.BuyerID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to fetch checkout history", err, map[string]interface{}{
			"buyer_id": query.BuyerID,
		})
		return nil, err
	}

	entries := make([]CheckoutHistoryEntry, 0, len(sessions))
	for _, sess := range sessions {
		if query.Status != "" && sess.Status().String() != query.Status {
			continue
		}
		entries = append(entries, newHistoryEntry(sess))
	}

	return &CheckoutHistoryResult{
		Entries: entries,
		Limit:   limit,
		Offset:  offset,
	}, nil
}
