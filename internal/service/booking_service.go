package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "medbook/internal/errors"
	"medbook/internal/model"
	"medbook/internal/notify"
	"medbook/internal/repository"
)

// ActorResolver looks up the user behind an authenticated id.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// BookingOptions tunes the booking rules.
type BookingOptions struct {
	// Capacity is the number of existing bookings at one instant above which
	// new bookings are refused.
	Capacity int
	// UpcomingOnly hides past appointments from List.
	UpcomingOnly bool
	// Production selects the production reminder plan.
	Production bool
	Now        func() time.Time
}

// BookingService handles appointment operations.
type BookingService interface {
	Create(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time) (*model.Appointment, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error)
	Confirm(ctx context.Context, actingUserID, appointmentID uuid.UUID) (*model.Appointment, error)
	Cancel(ctx context.Context, actingUserID, appointmentID uuid.UUID) (*model.Appointment, error)
}

type bookingService struct {
	appointments repository.AppointmentRepository
	actors       ActorResolver
	reminders    notify.Scheduler
	opts         BookingOptions
	logger       zerolog.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(
	appointments repository.AppointmentRepository,
	actors ActorResolver,
	reminders notify.Scheduler,
	opts BookingOptions,
	logger zerolog.Logger,
) BookingService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if reminders == nil {
		reminders = notify.Nop{}
	}
	return &bookingService{
		appointments: appointments,
		actors:       actors,
		reminders:    reminders,
		opts:         opts,
		logger:       logger,
	}
}

func (s *bookingService) now() time.Time {
	return model.SlotInstant(s.opts.Now())
}

// Create books patientID with doctorID at date.
func (s *bookingService) Create(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time) (*model.Appointment, error) {
	date = model.SlotInstant(date)

	patient, err := s.actors.ResolveActor(ctx, patientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.actors.ResolveActor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	details, ok := doctor.Profile().(model.DoctorDetails)
	if !ok {
		return nil, apperrors.ErrNotADoctor
	}

	count, err := s.appointments.CountByExactDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	if count > int64(s.opts.Capacity) {
		return nil, apperrors.ErrCapacityExceeded
	}

	if date.Before(s.now()) {
		return nil, apperrors.ErrPastDate
	}

	appointment := &model.Appointment{
		ID:        uuid.New(),
		Date:      date,
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Confirmed: false,
	}
	if err := s.appointments.CreateWithinCapacity(ctx, appointment, s.opts.Capacity); err != nil {
		if errors.Is(err, repository.ErrSlotFull) {
			return nil, apperrors.ErrCapacityExceeded
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	for _, r := range notify.Plan(s.opts.Production, notify.Visit{
		AppointmentID:  appointment.ID,
		Date:           appointment.Date,
		PatientName:    patient.Name,
		Specialization: details.Specialization,
	}) {
		s.reminders.Schedule(r)
	}

	s.logger.Info().
		Str("appointment_id", appointment.ID.String()).
		Str("patient_id", patient.ID.String()).
		Str("doctor_id", doctor.ID.String()).
		Time("date", appointment.Date).
		Msg("appointment booked")
	return appointment, nil
}

// List returns the caller's appointments ordered by date.
func (s *bookingService) List(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	actor, err := s.actors.ResolveActor(ctx, userID)
	if err != nil {
		return nil, err
	}

	var from time.Time
	if s.opts.UpcomingOnly {
		from = s.now()
	}

	role := model.RolePatient
	if actor.IsDoctor() {
		role = model.RoleDoctor
	}
	appointments, err := s.appointments.FindByParticipant(ctx, role, actor.ID, from)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

// ownedAppointment applies the checks shared by Confirm and Cancel.
func (s *bookingService) ownedAppointment(ctx context.Context, actingUserID, appointmentID uuid.UUID) (*model.Appointment, error) {
	actor, err := s.actors.ResolveActor(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	if !actor.IsDoctor() {
		return nil, apperrors.ErrNotADoctor
	}

	appointment, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	if appointment.DoctorID != actor.ID {
		return nil, apperrors.ErrNotOwner
	}
	return appointment, nil
}

// Confirm marks the doctor's appointment as confirmed.
func (s *bookingService) Confirm(ctx context.Context, actingUserID, appointmentID uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.ownedAppointment(ctx, actingUserID, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := s.appointments.MarkConfirmed(ctx, appointment.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}
	appointment.Confirmed = true

	s.logger.Info().Str("appointment_id", appointment.ID.String()).Msg("appointment confirmed")
	return appointment, nil
}

// Cancel deletes the doctor's appointment and returns it as it was.
func (s *bookingService) Cancel(ctx context.Context, actingUserID, appointmentID uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.ownedAppointment(ctx, actingUserID, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := s.appointments.Delete(ctx, appointment.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	s.reminders.Cancel(appointment.ID)

	s.logger.Info().Str("appointment_id", appointment.ID.String()).Msg("appointment cancelled")
	return appointment, nil
}
