package wallet

import (
	"context"
	"fmt"

	"japoke-backend/internal/models"
	"japoke-backend/internal/paging"

	"gorm.io/gorm"
)

type Store interface {
	Totals(ctx context.Context) (Totals, error)
	CreateProtection(ctx context.Context, p *models.BsProtection) error
	CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error
	Protections(ctx context.Context, page, limit int) ([]models.BsProtection, int64, error)
	Transactions(ctx context.Context, page, limit int) ([]models.WalletTransaction, int64, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Totals(ctx context.Context) (Totals, error) {
	db := s.db.WithContext(ctx)
	var t Totals

	var primary []PaymentTotal
	err := db.Model(&models.Order{}).
		Select("payment_method AS method, COALESCE(SUM(payment_amount_bs), 0) AS total_bs, COALESCE(SUM(payment_amount_usd), 0) AS total_usd, COUNT(*) AS count").
		Where("payment_status = ? AND status <> ?", models.PaymentVerified, models.OrderCancelled).
		Group("payment_method").
		Scan(&primary).Error
	if err != nil {
		return t, fmt.Errorf("sum primary payments: %w", err)
	}

	var split []PaymentTotal
	err = db.Model(&models.Order{}).
		Select(`split_payment->>'method' AS method,
			COALESCE(SUM((split_payment->>'amountBs')::numeric), 0) AS total_bs,
			COALESCE(SUM((split_payment->>'amountUsd')::numeric), 0) AS total_usd,
			COUNT(*) AS count`).
		Where("split_payment->>'status' = ? AND status <> ?", models.PaymentVerified, models.OrderCancelled).
		Group("split_payment->>'method'").
		Scan(&split).Error
	if err != nil {
		return t, fmt.Errorf("sum split payments: %w", err)
	}
	t.Payments = append(primary, split...)

	err = db.Model(&models.BsProtection{}).
		Select("destination, SUM(amount_bs) AS total_bs, SUM(amount_usd) AS total_usd, COUNT(*) AS count").
		Group("destination").
		Scan(&t.Protections).Error
	if err != nil {
		return t, fmt.Errorf("sum protections: %w", err)
	}

	err = db.Model(&models.WalletTransaction{}).
		Select("type, wallet, SUM(amount_bs) AS total_bs, SUM(amount_usd) AS total_usd, COUNT(*) AS count").
		Group("type, wallet").
		Scan(&t.Transactions).Error
	if err != nil {
		return t, fmt.Errorf("sum wallet transactions: %w", err)
	}
	return t, nil
}

func (s *GormStore) CreateProtection(ctx context.Context, p *models.BsProtection) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *GormStore) Protections(ctx context.Context, page, limit int) ([]models.BsProtection, int64, error) {
	var (
		list  []models.BsProtection
		total int64
	)
	q := s.db.WithContext(ctx).Model(&models.BsProtection{})
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("protected_at DESC").
		Offset(paging.Offset(page, limit)).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (s *GormStore) Transactions(ctx context.Context, page, limit int) ([]models.WalletTransaction, int64, error) {
	var (
		list  []models.WalletTransaction
		total int64
	)
	q := s.db.WithContext(ctx).Model(&models.WalletTransaction{})
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("date DESC").
		Offset(paging.Offset(page, limit)).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}
