package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"saplayer-checkout/internal/domain/session"
)

// SessionRepository MySQL実装のSessionRepository
type SessionRepository struct {
	db *DB
}

// NewSessionRepository 新しいSessionRepositoryを作成
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save PaymentSessionを保存
func (r *SessionRepository) Save(ctx context.Context, s *session.PaymentSession) error {
	query := `
		INSERT INTO checkout_sessions (
			payment_id, payment_url, buyer_id, seller_id, listing_id,
			amount, item_name, item_description, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			updated_at = VALUES(updated_at)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.PaymentID(),
		s.PaymentURL(),
		s.BuyerID(),
		s.SellerID(),
		s.ListingID(),
		s.Amount(),
		s.ItemName(),
		s.ItemDescription(),
		s.Status().String(),
		s.CreatedAt(),
		s.UpdatedAt(),
	)

	if err != nil {
		return fmt.Errorf("failed to save checkout session: %w", err)
	}

	return nil
}

// FindByPaymentID 決済IDでPaymentSessionを取得
func (r *SessionRepository) FindByPaymentID(ctx context.Context, paymentID string) (*session.PaymentSession, error) {
	query := `
		SELECT
			payment_id, payment_url, buyer_id, seller_id, listing_id,
			amount, item_name, item_description, status,
			created_at, updated_at
		FROM checkout_sessions
		WHERE payment_id = ?
	`

	row := r.db.QueryRowContext(ctx, query, paymentID)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find checkout session: %w", err)
	}

	return s, nil
}

// Update PaymentSessionを更新
func (r *SessionRepository) Update(ctx context.Context, s *session.PaymentSession) error {
	query := `
		UPDATE checkout_sessions
		SET status = ?, updated_at = ?
		WHERE payment_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		s.Status().String(),
		s.UpdatedAt(),
		s.PaymentID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update checkout session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

// FindByBuyerID 購入者IDでPaymentSessionを新しい順に取得
func (r *SessionRepository) FindByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*session.PaymentSession, error) {
	query := `
		SELECT
			payment_id, payment_url, buyer_id, seller_id, listing_id,
			amount, item_name, item_description, status,
			created_at, updated_at
		FROM checkout_sessions
		WHERE buyer_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find checkout sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.PaymentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checkout sessions: %w", err)
	}

	return sessions, nil
}

// rowScanner sql.Rowとsql.Rowsの共通走査インターフェース
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSession 1行をPaymentSessionエンティティに復元する
func scanSession(row rowScanner) (*session.PaymentSession, error) {
	var paymentID, paymentURL, buyerID, sellerID, listingID string
	var itemName, itemDescription, status string
	var amount float64
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&paymentID,
		&paymentURL,
		&buyerID,
		&sellerID,
		&listingID,
		&amount,
		&itemName,
		&itemDescription,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	st := session.SessionStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf("invalid session status: %s", status)
	}

	return session.ReconstructPaymentSession(
		paymentID,
		paymentURL,
		buyerID,
		sellerID,
		listingID,
		amount,
		itemName,
		itemDescription,
		st,
		createdAt,
		updatedAt,
	), nil
}
