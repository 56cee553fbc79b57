package db

import (
	"errors"

	"gorm.io/gorm"
)

// FindSessionByCode returns the session row for a code, or nil when absent.
func FindSessionByCode(conn *gorm.DB, code string) (*Session, error) {
	var record Session
	err := conn.Where("code = ?", code).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteSessionCascade removes a session row and everything hanging off it.
// Answers reference players and questions rather than the session, so they
// go first; the remaining children are covered by the FK cascade but are
// deleted explicitly to keep the behavior identical on stores without
// enforced constraints.
func DeleteSessionCascade(conn *gorm.DB, sessionID uint) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		var playerIDs []uint
		if err := tx.Model(&Player{}).Where("session_id = ?", sessionID).Pluck("id", &playerIDs).Error; err != nil {
			return err
		}
		if len(playerIDs) > 0 {
			if err := tx.Where("player_id IN ?", playerIDs).Delete(&Answer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&Event{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&Player{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&Team{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Session{}, sessionID).Error
	})
}
