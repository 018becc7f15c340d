package repository

import (
	"context"
	"encoding/json"
	"time"

	"blendresto/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository interface {
	// AppendTx serializes fila and records it as a pending sync event inside
	// the committing transaction, so an event exists iff its mutation does.
	AppendTx(tx *gorm.DB, tabla string, fila any, unitID string) error
	Pendientes(ctx context.Context, limit int) ([]model.EventoSync, error)
	MarcarEnviados(ctx context.Context, ids []uint) error
}

type outboxRepo struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepo{db: db} }

func (r *outboxRepo) AppendTx(tx *gorm.DB, tabla string, fila any, unitID string) error {
	data, err := json.Marshal(fila)
	if err != nil {
		return err
	}
	return tx.Create(&model.EventoSync{
		Tabla:  tabla,
		Fila:   string(data),
		UnitID: unitID,
	}).Error
}

func (r *outboxRepo) Pendientes(ctx context.Context, limit int) ([]model.EventoSync, error) {
	var eventos []model.EventoSync
	err := r.db.WithContext(ctx).
		Where("enviado = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&eventos).Error
	return eventos, err
}

func (r *outboxRepo) MarcarEnviados(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.EventoSync{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"enviado": true, "sent_at": now}).Error
}
