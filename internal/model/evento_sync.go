package model

import "time"

// EventoSync is the append-only outbox record of a committed local mutation
// destined for the hub. Fila holds the full row as JSON; the hub and the
// other terminals treat it as an opaque upsert payload keyed by the row's
// primary identity.
type EventoSync struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	Tabla  string `gorm:"type:varchar(40);index;not null"`
	Fila   string `gorm:"type:text;not null"`
	UnitID string `gorm:"type:varchar(40);not null"`
	// Enviado flips once the hub acknowledged the batch containing this event.
	Enviado   bool `gorm:"index;not null;default:false"`
	SentAt    *time.Time
	CreatedAt time.Time
}
