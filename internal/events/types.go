package events

import "time"

// TypeAppointmentConfirmed is emitted when an SMS request books a slot.
const TypeAppointmentConfirmed = "appointment.confirmed.v1"

// AppointmentConfirmed is the payload of TypeAppointmentConfirmed.
type AppointmentConfirmed struct {
	AppointmentID   string    `json:"appointment_id"`
	TenantID        string    `json:"tenant_id"`
	ChannelID       string    `json:"channel_id"`
	CustomerContact string    `json:"customer_contact"`
	Service         string    `json:"service"`
	ConfirmedTime   time.Time `json:"confirmed_time"`
}
