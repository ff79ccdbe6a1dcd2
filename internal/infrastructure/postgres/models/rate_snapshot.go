package models

import "time"

type RateSnapshotModel struct {
	ID         string    `gorm:"primaryKey;size:32"`
	Rates      string    `gorm:"type:jsonb;not null"`
	Fallbacks  string    `gorm:"type:text"`
	Defaults   string    `gorm:"type:text"`
	CapturedAt time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
}

func (RateSnapshotModel) TableName() string {
	return "rate_snapshots"
}
