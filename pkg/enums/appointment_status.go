package enums

import "fmt"

// AppointmentStatus maps to the appointment_status_enum enum in Postgres.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

var validAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
	AppointmentStatusNoShow,
}

// IsValid reports whether the value matches the canonical appointment status enum.
func (s AppointmentStatus) IsValid() bool {
	for _, candidate := range validAppointmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAppointmentStatus converts raw input into AppointmentStatus.
func ParseAppointmentStatus(value string) (AppointmentStatus, error) {
	for _, candidate := range validAppointmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid appointment status %q", value)
}

// statusByLabel is many-to-one on purpose: several human labels collapse onto
// one machine status so that imported data and sloppy UI input still resolve.
var statusByLabel = map[string]AppointmentStatus{
	"Pendente":   AppointmentStatusPending,
	"Agendado":   AppointmentStatusPending,
	"Confirmado": AppointmentStatusConfirmed,
	"Finalizado": AppointmentStatusCompleted,
	"Concluído":  AppointmentStatusCompleted,
	"Realizado":  AppointmentStatusCompleted,
	"Cancelado":  AppointmentStatusCancelled,
	"Ausente":    AppointmentStatusNoShow,
	"Faltou":     AppointmentStatusNoShow,
}

// labelByStatus is the one-to-one reverse map; denormalizing always yields the
// canonical label, not necessarily the label originally submitted.
var labelByStatus = map[AppointmentStatus]string{
	AppointmentStatusPending:   "Pendente",
	AppointmentStatusConfirmed: "Confirmado",
	AppointmentStatusCompleted: "Finalizado",
	AppointmentStatusCancelled: "Cancelado",
	AppointmentStatusNoShow:    "Ausente",
}

// NormalizeStatus translates a human-facing label into the machine status.
// Unrecognized labels pass through unchanged.
func NormalizeStatus(label string) AppointmentStatus {
	if status, ok := statusByLabel[label]; ok {
		return status
	}
	return AppointmentStatus(label)
}

// DenormalizeStatus translates a machine status back into its canonical label.
// Unrecognized statuses pass through unchanged.
func DenormalizeStatus(status AppointmentStatus) string {
	if label, ok := labelByStatus[status]; ok {
		return label
	}
	return string(status)
}
