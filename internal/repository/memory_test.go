package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"medbook/internal/model"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	doctor := model.NewUser("doc@example.com", "hash", "Doc", model.DoctorDetails{Available: true, Specialization: "therapist"})
	patient := model.NewUser("pat@example.com", "hash", "Pat", model.PatientDetails{})
	require.NoError(t, users.Create(ctx, doctor))
	require.NoError(t, users.Create(ctx, patient))

	err := users.Create(ctx, model.NewUser("doc@example.com", "hash", "Other", model.PatientDetails{}))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	found, err := users.FindByEmail(ctx, "doc@example.com")
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, found.ID)
	require.NotNil(t, found.Doctor)
	assert.Equal(t, "therapist", found.Doctor.Specialization)

	_, err = users.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	doctors, err := users.ListDoctors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, doctors, 1)

	doctors, err = users.ListDoctors(ctx, "surgeon")
	require.NoError(t, err)
	assert.Empty(t, doctors)
}

func TestMemorySessions_RotateIsConditional(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemoryStore().Sessions()
	userID := uuid.New()

	session := &model.Session{UserID: userID, RefreshToken: "old"}
	require.NoError(t, sessions.Create(ctx, session))

	require.NoError(t, sessions.Rotate(ctx, session.ID, "old", "new"))
	assert.ErrorIs(t, sessions.Rotate(ctx, session.ID, "old", "newer"), gorm.ErrRecordNotFound)

	_, err := sessions.FindByToken(ctx, "old")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := sessions.FindByToken(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	n, err := sessions.DeleteByUserAndToken(ctx, uuid.New(), "new")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = sessions.DeleteByUserAndToken(ctx, userID, "new")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryAppointments(t *testing.T) {
	ctx := context.Background()
	appointments := NewMemoryStore().Appointments()
	patientID, doctorID := uuid.New(), uuid.New()
	slot := model.SlotInstant(time.Now().Add(48 * time.Hour))

	for i := 0; i < 4; i++ {
		require.NoError(t, appointments.CreateWithinCapacity(ctx, &model.Appointment{
			Date: slot, PatientID: patientID, DoctorID: doctorID,
		}, 3))
	}
	err := appointments.CreateWithinCapacity(ctx, &model.Appointment{Date: slot, PatientID: patientID, DoctorID: doctorID}, 3)
	assert.ErrorIs(t, err, ErrSlotFull)

	count, err := appointments.CountByExactDate(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	count, err = appointments.CountByExactDate(ctx, slot.Add(time.Millisecond))
	require.NoError(t, err)
	assert.Zero(t, count)

	past := &model.Appointment{Date: slot.Add(-96 * time.Hour), PatientID: patientID, DoctorID: doctorID}
	require.NoError(t, appointments.Create(ctx, past))

	all, err := appointments.FindByParticipant(ctx, model.RolePatient, patientID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, past.ID, all[0].ID)

	upcoming, err := appointments.FindByParticipant(ctx, model.RoleDoctor, doctorID, time.Now())
	require.NoError(t, err)
	assert.Len(t, upcoming, 4)

	require.NoError(t, appointments.MarkConfirmed(ctx, past.ID))
	got, err := appointments.FindByID(ctx, past.ID)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)

	require.NoError(t, appointments.Delete(ctx, past.ID))
	_, err = appointments.FindByID(ctx, past.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, appointments.Delete(ctx, past.ID), gorm.ErrRecordNotFound)
}
