// Package wallet tracks the Bs received through Pago Móvil, how much of it has
// been protected into USD holdings or spent, and the USD wallet balances.
package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/lock"
	"japoke-backend/internal/logging"
	"japoke-backend/internal/models"
	"japoke-backend/internal/paging"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	bsPoolKey           = "wallet:bs-pool"
	defaultHistoryLimit = 20
	// scale of bs_protections.amount_usd
	protectionUsdPlaces = 6
)

// poolTolerance absorbs cent rounding between the client view and the pool.
var poolTolerance = decimal.New(1, -2)

type RateSnapshotter interface {
	Snapshot(ctx context.Context) (models.RateSnapshot, error)
}

type Service struct {
	store  Store
	locker lock.Locker
	rates  RateSnapshotter
	log    *logrus.Entry
	now    func() time.Time
}

func NewService(store Store, locker lock.Locker, rates RateSnapshotter, log *logrus.Entry) *Service {
	return &Service{store: store, locker: locker, rates: rates, log: log, now: time.Now}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	totals, err := s.store.Totals(ctx)
	if err != nil {
		return nil, err
	}
	var rate decimal.Decimal
	snap, err := s.rates.Snapshot(ctx)
	if err != nil {
		logging.LogWarn(s.log, "Summary", "rate snapshot unavailable", nil, err)
	} else {
		rate = snap.DolarParalelo
	}
	sum := Summarize(totals, rate)
	return &sum, nil
}

type ProtectionInput struct {
	AmountBs          decimal.Decimal
	RateDolarParalelo decimal.Decimal
	Destination       models.Wallet
	Notes             string
}

// CreateProtection converts part of the unprotected Bs pool into USD at the
// given rate. The pool check and the insert run under one lock.
func (s *Service) CreateProtection(ctx context.Context, in ProtectionInput) (*models.BsProtection, error) {
	if !in.AmountBs.IsPositive() {
		return nil, apperr.Validation("El monto en Bs debe ser mayor a 0")
	}
	if !in.RateDolarParalelo.IsPositive() {
		return nil, apperr.Validation("La tasa debe ser mayor a 0")
	}
	if !in.Destination.Valid() {
		return nil, apperr.Validation(`Destino inválido. Usa "usdt" o "efectivo_usd"`)
	}

	p := &models.BsProtection{
		AmountBs:          in.AmountBs,
		RateDolarParalelo: in.RateDolarParalelo,
		AmountUsd:         in.AmountBs.DivRound(in.RateDolarParalelo, protectionUsdPlaces),
		Destination:       in.Destination,
		Notes:             strings.TrimSpace(in.Notes),
	}
	err := s.locker.WithLock(ctx, bsPoolKey, func(ctx context.Context) error {
		if err := s.checkPool(ctx, in.AmountBs, "Solo tienes %s Bs sin proteger"); err != nil {
			return err
		}
		p.ProtectedAt = s.now()
		if err := s.store.CreateProtection(ctx, p); err != nil {
			return fmt.Errorf("create protection: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"amountBs":    p.AmountBs.String(),
		"amountUsd":   p.AmountUsd.String(),
		"destination": p.Destination,
	}).Info("bs protected")
	return p, nil
}

func (s *Service) checkPool(ctx context.Context, amountBs decimal.Decimal, msg string) error {
	totals, err := s.store.Totals(ctx)
	if err != nil {
		return err
	}
	pool := Summarize(totals, decimal.Zero).UnprotectedBs
	if amountBs.GreaterThan(pool.Add(poolTolerance)) {
		return apperr.Validation(msg, pool.StringFixed(2))
	}
	return nil
}

type TransactionInput struct {
	Type        models.WalletTransactionType
	Wallet      *models.Wallet
	AmountUsd   decimal.Decimal
	AmountBs    decimal.Decimal
	Description string
	Date        *time.Time
}

// CreateWalletTransaction records a capital injection, a USD expense from a
// wallet, or a Bs expense drawn from the same pool protections use.
func (s *Service) CreateWalletTransaction(ctx context.Context, in TransactionInput) (*models.WalletTransaction, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, apperr.Validation("La descripción es requerida")
	}
	tx := &models.WalletTransaction{Type: in.Type, Description: desc}

	switch in.Type {
	case models.TxCapitalInjection, models.TxUsdExpense:
		if in.Wallet == nil || !in.Wallet.Valid() {
			return nil, apperr.Validation(`Wallet inválida. Usa "usdt" o "efectivo_usd"`)
		}
		if !in.AmountUsd.IsPositive() {
			return nil, apperr.Validation("El monto USD debe ser mayor a 0")
		}
		w := *in.Wallet
		tx.Wallet = &w
		tx.AmountUsd = in.AmountUsd
	case models.TxBsExpense:
		if !in.AmountBs.IsPositive() {
			return nil, apperr.Validation("El monto en Bs debe ser mayor a 0")
		}
		tx.AmountBs = in.AmountBs
	default:
		return nil, apperr.Validation("Tipo de transacción inválido")
	}

	save := func(ctx context.Context) error {
		if in.Type == models.TxBsExpense {
			if err := s.checkPool(ctx, in.AmountBs, "Solo tienes %s Bs sin proteger disponibles"); err != nil {
				return err
			}
		}
		tx.Date = s.now()
		if in.Date != nil {
			tx.Date = *in.Date
		}
		if err := s.store.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("create wallet transaction: %w", err)
		}
		return nil
	}

	var err error
	if in.Type == models.TxBsExpense {
		err = s.locker.WithLock(ctx, bsPoolKey, save)
	} else {
		err = save(ctx)
	}
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"type": tx.Type, "amountBs": tx.AmountBs.String(), "amountUsd": tx.AmountUsd.String()}).
		Info("wallet transaction recorded")
	return tx, nil
}

type ProtectionPage struct {
	Records    []models.BsProtection `json:"records"`
	Pagination paging.Meta           `json:"pagination"`
}

func (s *Service) ProtectionHistory(ctx context.Context, page, limit int) (*ProtectionPage, error) {
	page, limit = paging.Normalize(page, limit, defaultHistoryLimit)
	list, total, err := s.store.Protections(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list protections: %w", err)
	}
	if list == nil {
		list = []models.BsProtection{}
	}
	return &ProtectionPage{Records: list, Pagination: paging.NewMeta(page, limit, total)}, nil
}

type TransactionPage struct {
	Records    []models.WalletTransaction `json:"records"`
	Pagination paging.Meta                `json:"pagination"`
}

func (s *Service) TransactionHistory(ctx context.Context, page, limit int) (*TransactionPage, error) {
	page, limit = paging.Normalize(page, limit, defaultHistoryLimit)
	list, total, err := s.store.Transactions(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	if list == nil {
		list = []models.WalletTransaction{}
	}
	return &TransactionPage{Records: list, Pagination: paging.NewMeta(page, limit, total)}, nil
}
