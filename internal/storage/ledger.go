package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
)

// UnlockResult is what a committed unlock transaction produced.
type UnlockResult struct {
	Price              int
	ViewerBalance      int
	SenderID           string
	SenderSparkMonthly int
	SenderSparkTotal   int
	AlreadyUnlocked    bool
}

// TransferResult is what a committed gift transaction produced.
type TransferResult struct {
	SenderBalance   int
	ReceiverBalance int
	GiftID          uint
	MessageID       uint
}

// UnlockMedia executes the paid reveal as one transaction: debit the viewer,
// credit the sender's spark totals, flip the lock, record the ledger row.
// The debit uses a conditional UPDATE so there is no gap between the balance
// check and the mutation; any failure rolls the whole thing back.
func (s *Service) UnlockMedia(messageID uint, viewerID string, at time.Time) (*UnlockResult, error) {
	out := &UnlockResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&msg, messageID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewAppError(models.CodeNotFound, "message not found")
		}
		if err != nil {
			return err
		}

		out.SenderID = msg.SenderID
		if !msg.Locked {
			// Lost the race against another unlock of the same message.
			// Treated as idempotent success by the caller.
			out.AlreadyUnlocked = true
			return nil
		}
		price := msg.MediaPrice
		out.Price = price

		res := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", viewerID, price).
			UpdateColumn("balance", gorm.Expr("balance - ?", price))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var viewer models.User
			if err := tx.Select("balance").First(&viewer, "id = ?", viewerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewAppError(models.CodeNotFound, "user not found")
				}
				return err
			}
			return models.NewInsufficientBalance(price, viewer.Balance)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", msg.SenderID).
			UpdateColumns(map[string]interface{}{
				"spark_monthly": gorm.Expr("spark_monthly + ?", price),
				"spark_total":   gorm.Expr("spark_total + ?", price),
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&msg).Updates(map[string]interface{}{
			"locked":    false,
			"viewed_by": viewerID,
			"viewed_at": at,
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.SparkTransaction{
			FromUserID: viewerID,
			ToUserID:   msg.SenderID,
			Amount:     price,
			Reason:     "media_unlock",
		}).Error; err != nil {
			return err
		}

		var viewer, sender models.User
		if err := tx.First(&viewer, "id = ?", viewerID).Error; err != nil {
			return err
		}
		if err := tx.First(&sender, "id = ?", msg.SenderID).Error; err != nil {
			return err
		}
		out.ViewerBalance = viewer.Balance
		out.SenderSparkMonthly = sender.SparkMonthly
		out.SenderSparkTotal = sender.SparkTotal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransferTokens moves spendable balance from one user to another as one
// transaction: debit with a balance guard, credit, persist the Gift record
// and the visible chat message. Gifts never touch spark.
func (s *Service) TransferTokens(fromID, toID, sessionID string, amount int) (*TransferResult, error) {
	out := &TransferResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", fromID, amount).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var sender models.User
			if err := tx.Select("balance").First(&sender, "id = ?", fromID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewAppError(models.CodeNotFound, "user not found")
				}
				return err
			}
			return models.NewInsufficientBalance(amount, sender.Balance)
		}

		res = tx.Model(&models.User{}).
			Where("id = ?", toID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewAppError(models.CodeNotFound, "receiver not found")
		}

		gift := models.Gift{
			SenderID:   fromID,
			ReceiverID: toID,
			SessionID:  sessionID,
			Amount:     amount,
		}
		if err := tx.Create(&gift).Error; err != nil {
			return err
		}
		out.GiftID = gift.ID

		msg := models.Message{
			SessionID: sessionID,
			SenderID:  fromID,
			MediaType: models.MediaGift,
			Content:   "gift",
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		out.MessageID = msg.ID

		var sender, receiver models.User
		if err := tx.First(&sender, "id = ?", fromID).Error; err != nil {
			return err
		}
		if err := tx.First(&receiver, "id = ?", toID).Error; err != nil {
			return err
		}
		out.SenderBalance = sender.Balance
		out.ReceiverBalance = receiver.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
