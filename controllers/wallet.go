package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/zagwe-games/bingo-rooms/config"
	"github.com/zagwe-games/bingo-rooms/models"
	"github.com/zagwe-games/bingo-rooms/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type verifyDepositRequest struct {
	TelegramID     int64  `json:"telegramId" binding:"required"`
	SMS            string `json:"sms" binding:"required"`
	ExpectedAmount int64  `json:"expectedAmount" binding:"required,gt=0"`
	Reference      string `json:"reference" binding:"required"`
}

// VerifyDeposit checks a pasted SMS against the external verifier and credits
// the wallet on success. The deposit reference is unique so a replayed SMS
// cannot credit twice.
func VerifyDeposit(c *gin.Context) {
	var req verifyDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verified, err := services.VerifyDeposit(req.SMS)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !verified {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	var user models.User
	if err := config.DB.Where("telegram_id = ?", req.TelegramID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Deposit{
			UserID:    req.TelegramID,
			Amount:    req.ExpectedAmount,
			Reference: req.Reference,
		}).Error; err != nil {
			return err
		}
		user.Balance += req.ExpectedAmount
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			UserID:       req.TelegramID,
			Type:         models.DepositTransaction,
			Amount:       req.ExpectedAmount,
			BalanceAfter: user.Balance,
			Reference:    req.Reference,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to credit deposit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type withdrawRequest struct {
	TelegramID int64  `json:"telegramId" binding:"required"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
	Method     string `json:"method"`
	Account    string `json:"account"`
}

// Withdraw deducts balance and records the transaction atomically
func Withdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var created models.Transaction
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("telegram_id = ?", req.TelegramID).First(&user).Error; err != nil {
			return err
		}
		if user.Balance < req.Amount {
			return errInsufficient
		}
		user.Balance -= req.Amount
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		created = models.Transaction{
			UserID:       req.TelegramID,
			Type:         models.WithdrawTransaction,
			Amount:       req.Amount,
			BalanceAfter: user.Balance,
			Reference:    req.Account,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		if errors.Is(err, errInsufficient) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to withdraw"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

var errInsufficient = errors.New("insufficient balance")

// GetBalance returns the user's current wallet balance
func GetBalance(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telegram_id"})
		return
	}

	var user models.User
	if err := config.DB.Where("telegram_id = ?", tid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"telegram_id": user.TelegramID, "balance": user.Balance})
}

// GetTransactions lists a user's transactions, optionally filtered by kind
func GetTransactions(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telegram_id"})
		return
	}

	q := config.DB.Where("user_id = ?", tid)
	switch c.Query("filter") {
	case "deposit":
		q = q.Where("type = ?", models.DepositTransaction)
	case "withdrawal":
		q = q.Where("type = ?", models.WithdrawTransaction)
	case "purchase":
		q = q.Where("type = ? AND method = ?", models.AdjustmentTransaction, models.StakeMethod)
	case "refund":
		q = q.Where("type = ? AND method = ?", models.AdjustmentTransaction, models.RefundMethod)
	case "win":
		q = q.Where("type = ? AND method = ?", models.AdjustmentTransaction, models.WinMethod)
	}

	var txs []models.Transaction
	if err := q.Order("created_at DESC").Limit(200).Find(&txs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transactions": txs})
}
