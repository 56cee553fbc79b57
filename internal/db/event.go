package db

import "gorm.io/gorm"

// EventsSince returns a session's events with a sequence greater than after,
// in append order.
func EventsSince(conn *gorm.DB, sessionID uint, after int64, limit int) ([]Event, error) {
	var events []Event
	query := conn.Where("session_id = ? AND seq > ?", sessionID, after).Order("seq asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
