package appointment

import "github.com/BruksfildServices01/barber-manager/internal/httperr"

// ===============================
// Appointment Status
// ===============================

// Status is closed: only the four values below exist. Stored as text.
type Status uint8

const (
	StatusScheduled Status = iota + 1
	StatusConfirmed
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusConfirmed:
		return "confirmed"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	}
	return "invalid"
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "scheduled":
		return StatusScheduled, nil
	case "confirmed":
		return StatusConfirmed, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled":
		return StatusCancelled, nil
	}
	return 0, httperr.ErrBusiness("invalid_status")
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Occupies reports whether an appointment in this status holds its barber's
// time. Only a cancellation frees the slot.
func (s Status) Occupies() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted:
		return true
	case StatusCancelled:
		return false
	}
	return false
}

// Open reports whether the appointment can still change status.
func (s Status) Open() bool {
	switch s {
	case StatusScheduled, StatusConfirmed:
		return true
	case StatusCompleted, StatusCancelled:
		return false
	}
	return false
}

// OccupyingStatuses lists the stored values that block a slot.
func OccupyingStatuses() []string {
	return []string{StatusScheduled.String(), StatusConfirmed.String(), StatusCompleted.String()}
}

// ===============================
// Validations
// ===============================

func CanConfirm(current Status) error {
	switch current {
	case StatusScheduled:
		return nil
	case StatusConfirmed, StatusCompleted, StatusCancelled:
		return httperr.ErrBusiness("invalid_state")
	}
	return httperr.ErrBusiness("invalid_status")
}

// CanCancel define se um agendamento pode ser cancelado
func CanCancel(current Status) error {
	switch current {
	case StatusScheduled, StatusConfirmed:
		return nil
	case StatusCompleted, StatusCancelled:
		return httperr.ErrBusiness("invalid_state")
	}
	return httperr.ErrBusiness("invalid_status")
}

// CanComplete define se um agendamento pode ser concluído
func CanComplete(current Status) error {
	switch current {
	case StatusScheduled, StatusConfirmed:
		return nil
	case StatusCompleted, StatusCancelled:
		return httperr.ErrBusiness("invalid_state")
	}
	return httperr.ErrBusiness("invalid_status")
}

func InitialStatus() Status {
	return StatusScheduled
}
