package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachslot/internal/apperr"
	"coachslot/internal/auth"
	"coachslot/internal/availability"
	"coachslot/internal/db"
	"coachslot/internal/deadline"
	"coachslot/internal/events"
	"coachslot/internal/logger"
	"coachslot/internal/metrics"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SlotAllocator books and frees slot ranges inside a transaction.
type SlotAllocator interface {
	Allocate(ctx context.Context, tx sqlx.ExtContext, trainerID string, startAt time.Time, minutes int) ([]availability.Slot, error)
	Release(ctx context.Context, tx sqlx.ExtContext, trainerID string, startAt time.Time, minutes int) (int64, error)
}

// NameLookup resolves the display name copied onto a reservation.
type NameLookup interface {
	FindName(ctx context.Context, id string) (string, error)
}

type Service interface {
	Create(ctx context.Context, requester auth.Requester, req CreateRequest) (*Reservation, error)
	Cancel(ctx context.Context, requester auth.Requester, id string) (*Reservation, error)
	List(ctx context.Context, requester auth.Requester) ([]Reservation, error)
	Get(ctx context.Context, requester auth.Requester, id string) (*Reservation, error)
}

type Deps struct {
	Repo      Repository
	Tx        db.Transactor
	Allocator SlotAllocator
	Policy    *deadline.Policy
	Users     NameLookup
	Cache     availability.Cache
	Events    events.Publisher
}

type service struct {
	repo   Repository
	tx     db.Transactor
	slots  SlotAllocator
	policy *deadline.Policy
	users  NameLookup
	cache  availability.Cache
	events events.Publisher
}

func NewService(d Deps) Service {
	s := &service{
		repo:   d.Repo,
		tx:     d.Tx,
		slots:  d.Allocator,
		policy: d.Policy,
		users:  d.Users,
		cache:  d.Cache,
		events: d.Events,
	}
	if s.policy == nil {
		s.policy = deadline.NewPolicy(nil, nil)
	}
	if s.cache == nil {
		s.cache = availability.NopCache{}
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	return s
}

func (s *service) Create(ctx context.Context, requester auth.Requester, req CreateRequest) (*Reservation, error) {
	res, booked, err := s.create(ctx, requester, req)
	if err != nil {
		metrics.RecordReservation(apperr.Code(err), 0)
		if apperr.HTTPStatus(err) < 500 {
			logger.Info("reservation rejected",
				"user_id", requester.ID,
				"trainer_id", req.TrainerID,
				"date", req.Date,
				"start_time", req.StartTime,
				"reason", apperr.Code(err),
			)
		}
		return nil, err
	}

	metrics.RecordReservation("created", len(booked))
	availability.InvalidateDays(ctx, s.cache, s.policy.Location(), res.TrainerID, booked)
	events.Emit(ctx, s.events, s.event(events.ReservationCreated, res))

	logger.Info("reservation created",
		"reservation_id", res.ID,
		"user_id", res.UserID,
		"trainer_id", res.TrainerID,
		"date", res.Date,
		"start_time", res.StartTime,
		"course_minutes", res.CourseMinutes,
	)
	return res, nil
}

func (s *service) create(ctx context.Context, requester auth.Requester, req CreateRequest) (*Reservation, []availability.Slot, error) {
	if _, err := uuid.Parse(req.TrainerID); err != nil {
		return nil, nil, apperr.Validation("trainerId must be a UUID")
	}
	if req.CourseMinutes < 15 || req.CourseMinutes > 240 {
		return nil, nil, apperr.Validation("courseMinutes must be between 15 and 240, got %d", req.CourseMinutes)
	}

	loc := s.policy.Location()
	startAt, err := deadline.Combine(req.Date, req.StartTime, loc)
	if err != nil {
		return nil, nil, err
	}
	endAt, _, err := availability.Span(startAt, req.CourseMinutes)
	if err != nil {
		return nil, nil, err
	}

	day, _ := deadline.ParseDay(req.Date, loc)
	if err := s.policy.Check(day); err != nil {
		return nil, nil, err
	}

	userName := ""
	if s.users != nil {
		name, err := s.users.FindName(ctx, requester.ID)
		if err != nil {
			return nil, nil, db.Translate("find user", err, apperr.ErrStoreUnavailable)
		}
		userName = name
	}

	draft := &Reservation{
		UserID:        requester.ID,
		UserName:      userName,
		TrainerID:     req.TrainerID,
		Date:          req.Date,
		StartTime:     startAt.Format(deadline.TimeLayout),
		EndTime:       endAt.Format(deadline.TimeLayout),
		StartAt:       startAt,
		CourseMinutes: req.CourseMinutes,
		Status:        StatusActive,
	}

	var (
		created *Reservation
		booked  []availability.Slot
	)
	err = s.tx.WithinTx(ctx, func(tx sqlx.ExtContext) error {
		slots, err := s.slots.Allocate(ctx, tx, req.TrainerID, startAt, req.CourseMinutes)
		if err != nil {
			return err
		}
		res, err := s.repo.Create(ctx, tx, draft)
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		created, booked = res, slots
		return nil
	})
	if err != nil {
		return nil, nil, db.Translate("create reservation", err, apperr.ErrSlotAlreadyBooked)
	}

	return created, booked, nil
}

func (s *service) Cancel(ctx context.Context, requester auth.Requester, id string) (*Reservation, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.UserID != requester.ID && !requester.IsTrainer() {
		return nil, fmt.Errorf("reservation %s: %w", id, apperr.ErrForbidden)
	}

	day, err := deadline.ParseDay(res.Date, s.policy.Location())
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(day); err != nil {
		return nil, err
	}

	if res.Cancelled() {
		metrics.RecordCancellation("already_cancelled", 0)
		return res, nil
	}

	var (
		cancelled *Reservation
		released  int64
	)
	err = s.tx.WithinTx(ctx, func(tx sqlx.ExtContext) error {
		current, err := s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Cancelled() {
			// Cancelled by a transaction that committed before this one began.
			cancelled = current
			return nil
		}

		updated, err := s.repo.MarkCancelled(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("mark cancelled: %w", err)
		}
		n, err := s.slots.Release(ctx, tx, current.TrainerID, current.StartAt, current.CourseMinutes)
		if err != nil {
			return err
		}
		cancelled, released = updated, n
		return nil
	})
	if err != nil {
		if db.IsConflict(err) {
			// An overlapping cancel won the row lock and committed.
			if current, getErr := s.repo.GetByID(ctx, id); getErr == nil && current.Cancelled() {
				metrics.RecordCancellation("already_cancelled", 0)
				return current, nil
			}
		}
		err = db.Translate("cancel reservation", err, apperr.ErrStoreUnavailable)
		metrics.RecordCancellation(apperr.Code(err), 0)
		return nil, err
	}

	metrics.RecordCancellation("cancelled", released)
	availability.InvalidateDays(ctx, s.cache, s.policy.Location(), cancelled.TrainerID,
		[]availability.Slot{{TrainerID: cancelled.TrainerID, StartAt: cancelled.StartAt}})
	events.Emit(ctx, s.events, s.event(events.ReservationCancelled, cancelled))

	logger.Info("reservation cancelled",
		"reservation_id", cancelled.ID,
		"by", requester.ID,
		"released_slots", released,
	)
	return cancelled, nil
}

func (s *service) List(ctx context.Context, requester auth.Requester) ([]Reservation, error) {
	var (
		list []Reservation
		err  error
	)
	switch requester.Role {
	case auth.RoleTrainer:
		list, err = s.repo.ListByTrainer(ctx, requester.ID)
	case auth.RoleTrainee:
		list, err = s.repo.ListByUser(ctx, requester.ID)
	default:
		return nil, fmt.Errorf("unknown role %q: %w", requester.Role, apperr.ErrForbidden)
	}
	if err != nil {
		return nil, db.Translate("list reservations", err, apperr.ErrStoreUnavailable)
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, requester auth.Requester, id string) (*Reservation, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.VisibleTo(requester.ID) {
		return nil, fmt.Errorf("reservation %s: %w", id, apperr.ErrForbidden)
	}
	return res, nil
}

func (s *service) load(ctx context.Context, id string) (*Reservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("reservation %q: %w", id, apperr.ErrNotFound)
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("reservation %s: %w", id, apperr.ErrNotFound)
		}
		return nil, db.Translate("get reservation", err, apperr.ErrStoreUnavailable)
	}
	return res, nil
}

func (s *service) event(kind string, r *Reservation) events.Event {
	e := events.NewEvent(kind, s.policy.Now())
	e.ReservationID = r.ID
	e.UserID = r.UserID
	e.TrainerID = r.TrainerID
	e.Date = r.Date
	e.StartTime = r.StartTime
	e.CourseMinutes = r.CourseMinutes
	return e
}
