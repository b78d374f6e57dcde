package reservation

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

type Reservation struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	UserName      string    `db:"user_name" json:"userName"`
	TrainerID     string    `db:"trainer_id" json:"trainerId"`
	Date          string    `db:"date" json:"date" example:"2025-06-10"`
	StartTime     string    `db:"start_time" json:"startTime" example:"09:00"`
	EndTime       string    `db:"end_time" json:"endTime" example:"10:00"`
	StartAt       time.Time `db:"start_at" json:"startAt"`
	CourseMinutes int       `db:"course_minutes" json:"courseMinutes" example:"60"`
	Status        Status    `db:"status" json:"status" example:"active"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

func (r *Reservation) Cancelled() bool {
	return r.Status == StatusCancelled
}

// VisibleTo reports whether id may read or cancel the reservation as its
// owner or its trainer.
func (r *Reservation) VisibleTo(id string) bool {
	return r.UserID == id || r.TrainerID == id
}

type CreateRequest struct {
	TrainerID     string `json:"trainerId" binding:"required,uuid"`
	Date          string `json:"date" binding:"required,datetime=2006-01-02" example:"2025-06-10"`
	StartTime     string `json:"startTime" binding:"required,datetime=15:04" example:"09:00"`
	CourseMinutes int    `json:"courseMinutes" binding:"required,min=15,max=240" example:"60"`
}
