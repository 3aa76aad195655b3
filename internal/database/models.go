// Package database хранит результаты прогонов в PostgreSQL через GORM.
package database

import "time"

// TestRun - один запуск набора тестов.
type TestRun struct {
	ID         string     `gorm:"type:uuid;primaryKey"`
	Browser    string     `gorm:"type:varchar(16);not null"`
	BaseURL    string     `gorm:"type:text"`
	StartedAt  time.Time  `gorm:"not null"`
	// FinishedAt пуст, пока прогон идет.
	FinishedAt *time.Time
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
}

// TestResult - итог одного теста. Status: passed, failed, errored.
type TestResult struct {
	ID             uint      `gorm:"primaryKey"`
	RunID          string    `gorm:"type:uuid;index;not null"`
	Unit           string    `gorm:"type:text;not null"`
	Status         string    `gorm:"type:varchar(16);not null"`
	Error          string    `gorm:"type:text"`
	ScreenshotPath string    `gorm:"type:text"`
	CaptureError   string    `gorm:"type:text"`
	TeardownError  string    `gorm:"type:text"`
	StartedAt      time.Time `gorm:"not null"`
	DurationMs     int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}
