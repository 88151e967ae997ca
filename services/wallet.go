package services

import (
	"errors"

	"github.com/zagwe-games/bingo-rooms/game"
	"github.com/zagwe-games/bingo-rooms/models"
	"github.com/zagwe-games/bingo-rooms/utils/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletLedger implements game.Ledger on the wallet tables. Balance
// check-then-deduct runs under a row lock so concurrent deductions for the
// same user cannot both pass the check; every game movement is recorded as an
// adjustment transaction keyed by (user, method, roundRef).
type WalletLedger struct {
	db *gorm.DB
}

func NewWalletLedger(db *gorm.DB) *WalletLedger {
	return &WalletLedger{db: db}
}

func (w *WalletLedger) Balance(userID int64) (int64, error) {
	var user models.User
	if err := w.db.Where("telegram_id = ?", userID).First(&user).Error; err != nil {
		return 0, err
	}
	return user.Balance, nil
}

func (w *WalletLedger) ChargeStake(userID int64, amount int64, roundRef string) error {
	if w.adjustmentExists(userID, models.StakeMethod, roundRef) {
		return nil
	}
	return w.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("telegram_id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		if user.Balance < amount {
			return game.ErrInsufficientBalance
		}
		user.Balance -= amount
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			UserID:       userID,
			Type:         models.AdjustmentTransaction,
			Method:       models.StakeMethod,
			Amount:       amount,
			BalanceAfter: user.Balance,
			Reference:    roundRef,
		}).Error
	})
}

func (w *WalletLedger) Refund(userID int64, amount int64, roundRef string) error {
	// Idempotency key is the (user, roundRef) pair: a user may stake across
	// multiple distinct rounds.
	if w.adjustmentExists(userID, models.RefundMethod, roundRef) {
		return nil
	}
	// Never credit a reference that was never actually charged.
	if !w.adjustmentExists(userID, models.StakeMethod, roundRef) {
		return game.ErrNoStake
	}
	err := w.credit(userID, amount, models.RefundMethod, roundRef)
	if err != nil {
		logger.Errorf("[Wallet] refund failed user=%d ref=%s: %v", userID, roundRef, err)
	}
	return err
}

func (w *WalletLedger) CreditPayout(userID int64, amount int64, roundRef string) error {
	if w.adjustmentExists(userID, models.WinMethod, roundRef) {
		return nil
	}
	return w.credit(userID, amount, models.WinMethod, roundRef)
}

// credit applies balance credit + transaction record as one atomic unit.
func (w *WalletLedger) credit(userID int64, amount int64, method string, roundRef string) error {
	return w.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("telegram_id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		user.Balance += amount
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			UserID:       userID,
			Type:         models.AdjustmentTransaction,
			Method:       method,
			Amount:       amount,
			BalanceAfter: user.Balance,
			Reference:    roundRef,
		}).Error
	})
}

func (w *WalletLedger) adjustmentExists(userID int64, method string, roundRef string) bool {
	if roundRef == "" {
		return false
	}
	var tx models.Transaction
	err := w.db.Where(
		"user_id = ? AND type = ? AND method = ? AND reference = ?",
		userID, models.AdjustmentTransaction, method, roundRef,
	).First(&tx).Error
	return !errors.Is(err, gorm.ErrRecordNotFound) && err == nil
}
