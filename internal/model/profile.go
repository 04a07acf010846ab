package model

import "strings"

// Profile is the role-specific part of a user: PatientDetails or DoctorDetails.
type Profile interface {
	Role() Role
	profile()
}

// PatientDetails carries no extra fields.
type PatientDetails struct{}

// DoctorDetails describes a doctor's availability and specialization.
type DoctorDetails struct {
	Available      bool
	Specialization string
}

func (PatientDetails) Role() Role { return RolePatient }
func (PatientDetails) profile()   {}

func (DoctorDetails) Role() Role { return RoleDoctor }
func (DoctorDetails) profile()   {}

// ProfileFor builds the profile variant for role. Doctors need both an
// availability flag and a non-empty specialization; ok is false otherwise.
func ProfileFor(role Role, available *bool, specialization string) (p Profile, ok bool) {
	switch role {
	case RolePatient:
		return PatientDetails{}, true
	case RoleDoctor:
		specialization = strings.TrimSpace(specialization)
		if available == nil || specialization == "" {
			return nil, false
		}
		return DoctorDetails{Available: *available, Specialization: specialization}, true
	default:
		return nil, false
	}
}
