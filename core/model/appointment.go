package model

import "time"

// AppointmentStatus tells whether a service slot was booked.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentNotNeeded AppointmentStatus = "no_schedule_needed"
)

const (
	// MethodAutoSelected marks slots chosen by the scheduler without user input.
	MethodAutoSelected      = "auto-selected"
	NoScheduleNeededDetails = "No scheduling action required based on current battery status."
	// NoAppointmentReason is the suppression reason when nothing was booked.
	NoAppointmentReason = "no appointment scheduled"
)

// Appointment is the outcome of the scheduling stage. Dealer, Slot and Method
// are only set when Status is AppointmentScheduled.
type Appointment struct {
	Status  AppointmentStatus `json:"status"`
	Dealer  *string           `json:"dealer,omitempty"`
	Slot    *time.Time        `json:"slot,omitempty"`
	Method  *string           `json:"method,omitempty"`
	Details string            `json:"details,omitempty"`
}

// Scheduled reports whether a slot was booked.
func (a Appointment) Scheduled() bool { return a.Status == AppointmentScheduled }

// Notification is the user facing summary. Exactly one of Message and
// SuppressedReason is set.
type Notification struct {
	Subject          string  `json:"subject,omitempty"`
	Message          *string `json:"message,omitempty"`
	SuppressedReason *string `json:"suppressed_reason,omitempty"`
}

// String returns a pointer to s.
func String(s string) *string { return &s }
