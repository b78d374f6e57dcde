package availability

import "time"

// SlotDuration is the fixed length of every published slot.
const SlotDuration = 30 * time.Minute

type Slot struct {
	ID        string    `db:"id" json:"id"`
	TrainerID string    `db:"trainer_id" json:"trainerId"`
	StartAt   time.Time `db:"start_at" json:"startAt"`
	EndAt     time.Time `db:"end_at" json:"endAt"`
	IsBooked  bool      `db:"is_booked" json:"isBooked"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type SlotInput struct {
	StartAt time.Time `json:"startAt" binding:"required" example:"2025-06-10T09:00:00+09:00"`
	EndAt   time.Time `json:"endAt" binding:"required" example:"2025-06-10T09:30:00+09:00"`
}

type PublishRequest struct {
	TrainerID string      `json:"trainerId" binding:"required,uuid"`
	Slots     []SlotInput `json:"slots" binding:"required,min=1,max=336,dive"`
}

// Aligned reports whether t falls on a half-hour mark of the wall clock in
// loc. A nil loc uses t's own location.
func Aligned(t time.Time, loc *time.Location) bool {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Minute()%int(SlotDuration/time.Minute) == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// RequiredSlots converts a course length into a slot count.
func RequiredSlots(minutes int) (int, bool) {
	if minutes <= 0 || minutes%int(SlotDuration/time.Minute) != 0 {
		return 0, false
	}
	return minutes / int(SlotDuration/time.Minute), true
}
