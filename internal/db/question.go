package db

import "gorm.io/gorm"

// SamplePool returns shared questions that belong to no session, oldest first.
func SamplePool(conn *gorm.DB, limit int) ([]Question, error) {
	var questions []Question
	query := conn.Where("session_id IS NULL").Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// SessionQuestions returns a session's own questions in creation order.
func SessionQuestions(conn *gorm.DB, sessionID uint) ([]Question, error) {
	var questions []Question
	if err := conn.Where("session_id = ?", sessionID).Order("id asc").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}
