package models

import (
	"time"

	"github.com/google/uuid"
)

const CheckInStatusConfirmed = "confirmed"

type CheckIn struct {
	ID        uuid.UUID `json:"id"`
	ClassID   uuid.UUID `json:"class_id"`
	UserID    uuid.UUID `json:"user_id"`
	ClassDate time.Time `json:"class_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
