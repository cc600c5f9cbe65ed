package models

import (
	"time"

	"gorm.io/datatypes"
)

// MirrorEvent is the local read copy of an event record.
type MirrorEvent struct {
	ID            string `gorm:"primaryKey;size:64"`
	Title         string `gorm:"size:255;not null"`
	Description   string `gorm:"type:text"`
	Date          int64  `gorm:"not null;index"`
	Time          string `gorm:"size:16"`
	Location      string `gorm:"size:512"`
	Latitude      *float64
	Longitude     *float64
	OrganizerID   string  `gorm:"size:64;not null;index"`
	OrganizerName string  `gorm:"size:255"`
	ImageURL      *string `gorm:"size:1024"`
	License       string  `gorm:"size:32"`
	Category      string  `gorm:"size:64;index"`
	Capacity      *int
	Attendees     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	AverageRating float64
	RatingCount   int
	State         string    `gorm:"size:16;index"`
	CreatedAt     int64     `gorm:"autoCreateTime:false"`
	SyncedAt      time.Time `gorm:"autoUpdateTime"`
}

func (MirrorEvent) TableName() string { return "mirror_events" }

type MirrorComment struct {
	ID           string  `gorm:"primaryKey;size:64"`
	EventID      string  `gorm:"size:64;not null;index"`
	UserID       string  `gorm:"size:64;not null"`
	UserName     string  `gorm:"size:255"`
	UserPhotoURL *string `gorm:"size:1024"`
	Text         string  `gorm:"type:text"`
	Rating       int     `gorm:"not null"`
	Date         int64   `gorm:"not null;index"`
	Edited       bool
	SyncedAt     time.Time `gorm:"autoUpdateTime"`
}

func (MirrorComment) TableName() string { return "mirror_comments" }

type MirrorUser struct {
	ID             string                      `gorm:"primaryKey;size:64"`
	Name           string                      `gorm:"size:255"`
	Email          string                      `gorm:"size:255;index"`
	PhotoURL       *string                     `gorm:"size:1024"`
	CreatedEvents  datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	AttendedEvents datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	RegisteredAt   int64
	SyncedAt       time.Time `gorm:"autoUpdateTime"`
}

func (MirrorUser) TableName() string { return "mirror_users" }
