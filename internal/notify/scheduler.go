package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Reminder is one deferred notification for a booked appointment.
type Reminder struct {
	AppointmentID uuid.UUID
	At            time.Time
	Message       string
}

// Scheduler accepts reminders for later delivery.
type Scheduler interface {
	Schedule(r Reminder)
	Cancel(appointmentID uuid.UUID)
}

// Visit describes the appointment a reminder plan is built for.
type Visit struct {
	AppointmentID  uuid.UUID
	Date           time.Time
	PatientName    string
	Specialization string
}

// Plan returns the reminders for v. Production sends one a day ahead and one
// an hour ahead; other environments send a single reminder a minute ahead.
func Plan(production bool, v Visit) []Reminder {
	leads := []time.Duration{time.Minute}
	if production {
		leads = []time.Duration{24 * time.Hour, time.Hour}
	}

	reminders := make([]Reminder, 0, len(leads))
	for _, lead := range leads {
		reminders = append(reminders, Reminder{
			AppointmentID: v.AppointmentID,
			At:            v.Date.Add(-lead),
			Message: fmt.Sprintf("Hello %s! A reminder that you are booked with a %s at %s.",
				v.PatientName, v.Specialization, v.Date.UTC().Format(time.RFC3339)),
		})
	}
	return reminders
}

// FileScheduler arms one timer per reminder and appends fired reminders to a
// notifications log through a single writer goroutine started by Run.
type FileScheduler struct {
	mu     sync.Mutex
	timers map[uuid.UUID]map[*pending]struct{}
	fired  chan Reminder
	out    zerolog.Logger
	logger zerolog.Logger
	now    func() time.Time
}

type pending struct {
	timer *time.Timer
}

// NewFileScheduler creates a scheduler writing reminder lines to w.
func NewFileScheduler(w io.Writer, logger zerolog.Logger) *FileScheduler {
	return &FileScheduler{
		timers: make(map[uuid.UUID]map[*pending]struct{}),
		fired:  make(chan Reminder, 64),
		out:    zerolog.New(w).With().Timestamp().Logger(),
		logger: logger,
		now:    time.Now,
	}
}

// Schedule arms a timer for r. Reminders already due are dropped.
func (s *FileScheduler) Schedule(r Reminder) {
	delay := r.At.Sub(s.now())
	if delay <= 0 {
		s.logger.Debug().Str("appointment_id", r.AppointmentID.String()).Msg("reminder already due, dropped")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := &pending{}
	p.timer = time.AfterFunc(delay, func() { s.fire(p, r) })
	if s.timers[r.AppointmentID] == nil {
		s.timers[r.AppointmentID] = make(map[*pending]struct{})
	}
	s.timers[r.AppointmentID][p] = struct{}{}
}

func (s *FileScheduler) fire(p *pending, r Reminder) {
	s.mu.Lock()
	set, ok := s.timers[r.AppointmentID]
	if ok {
		_, ok = set[p]
		delete(set, p)
		if len(set) == 0 {
			delete(s.timers, r.AppointmentID)
		}
	}
	s.mu.Unlock()
	if !ok {
		// cancelled after the timer had already started
		return
	}

	select {
	case s.fired <- r:
	default:
		s.logger.Warn().Str("appointment_id", r.AppointmentID.String()).Msg("reminder queue full, dropped")
	}
}

// Cancel stops every pending reminder of the appointment.
func (s *FileScheduler) Cancel(appointmentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.timers[appointmentID] {
		p.timer.Stop()
	}
	delete(s.timers, appointmentID)
}

// Pending reports how many reminders are armed.
func (s *FileScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, set := range s.timers {
		n += len(set)
	}
	return n
}

// Run writes fired reminders until ctx is done, then stops all timers.
func (s *FileScheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			return
		case r := <-s.fired:
			s.out.Info().
				Str("appointment_id", r.AppointmentID.String()).
				Time("due", r.At).
				Msg(r.Message)
			s.logger.Info().Str("appointment_id", r.AppointmentID.String()).Msg("reminder sent")
		}
	}
}

func (s *FileScheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, set := range s.timers {
		for p := range set {
			p.timer.Stop()
		}
		delete(s.timers, id)
	}
}

// Nop discards reminders.
type Nop struct{}

func (Nop) Schedule(Reminder) {}
func (Nop) Cancel(uuid.UUID)  {}
