package repository

import (
	"context"

	"blendresto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketRepository interface {
	CreateTx(tx *gorm.DB, t *model.TicketCocina) error
	FindByPedido(ctx context.Context, pedidoID uuid.UUID) (*model.TicketCocina, error)
	UpdateTx(tx *gorm.DB, t *model.TicketCocina) error
	// ListActivos returns tickets that still need kitchen attention,
	// oldest first (the KDS queue order).
	ListActivos(ctx context.Context) ([]model.TicketCocina, error)
}

type ticketRepo struct{ db *gorm.DB }

func NewTicketRepository(db *gorm.DB) TicketRepository { return &ticketRepo{db: db} }

func (r *ticketRepo) CreateTx(tx *gorm.DB, t *model.TicketCocina) error {
	return tx.Create(t).Error
}

func (r *ticketRepo) FindByPedido(ctx context.Context, pedidoID uuid.UUID) (*model.TicketCocina, error) {
	var t model.TicketCocina
	err := r.db.WithContext(ctx).First(&t, "pedido_id = ?", pedidoID).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepo) UpdateTx(tx *gorm.DB, t *model.TicketCocina) error {
	return tx.Model(&model.TicketCocina{}).Where("id = ?", t.ID).
		Select("Estado", "PreparingStart", "ReadyAt", "DeliveredAt").
		Updates(t).Error
}

func (r *ticketRepo) ListActivos(ctx context.Context) ([]model.TicketCocina, error) {
	var tickets []model.TicketCocina
	err := r.db.WithContext(ctx).
		Where("estado IN ?", []string{model.TicketQueued, model.TicketPrep, model.TicketReady}).
		Order("created_at ASC").
		Find(&tickets).Error
	return tickets, err
}
