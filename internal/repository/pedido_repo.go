package repository

import (
	"context"

	"blendresto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PedidoRepository interface {
	// DB exposes the gorm handle so services can open transactions spanning
	// several repositories. Returns nil in unit-test fakes.
	DB() *gorm.DB
	CreateTx(tx *gorm.DB, p *model.Pedido) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.PedidoItem, error)
	// FindUnidadByID returns the unit together with its parent item.
	FindUnidadByID(ctx context.Context, id uuid.UUID) (*model.PedidoItem, *model.UnidadProduccion, error)
	// UpdatePedidoTx persists the pedido's scalar columns (estado, vuelto,
	// timestamps) without touching the item/unit graph.
	UpdatePedidoTx(tx *gorm.DB, p *model.Pedido) error
	UpdateItemTx(tx *gorm.DB, item *model.PedidoItem) error
	UpdateUnidadTx(tx *gorm.DB, u *model.UnidadProduccion) error
	AgregarUnidadesTx(tx *gorm.DB, unidades []model.UnidadProduccion) error
	EliminarUnidadesTx(tx *gorm.DB, ids []uuid.UUID) error
	ListActivos(ctx context.Context, sesionOperativaID uuid.UUID) ([]model.Pedido, error)
	// PurgarActivosTx marks every non-terminal pedido of the operational
	// session cancelado. Returns the number of rows touched.
	PurgarActivosTx(tx *gorm.DB, sesionOperativaID uuid.UUID) (int64, error)
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) DB() *gorm.DB { return r.db }

func (r *pedidoRepo) CreateTx(tx *gorm.DB, p *model.Pedido) error {
	return tx.Create(p).Error
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Items.Unidades").
		Preload("Pagos").
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *pedidoRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.PedidoItem, error) {
	var item model.PedidoItem
	err := r.db.WithContext(ctx).Preload("Unidades").First(&item, "id = ?", id).Error
	return &item, err
}

func (r *pedidoRepo) FindUnidadByID(ctx context.Context, id uuid.UUID) (*model.PedidoItem, *model.UnidadProduccion, error) {
	var u model.UnidadProduccion
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, nil, err
	}
	var item model.PedidoItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", u.PedidoItemID).Error; err != nil {
		return nil, nil, err
	}
	return &item, &u, nil
}

func (r *pedidoRepo) UpdatePedidoTx(tx *gorm.DB, p *model.Pedido) error {
	return tx.Model(&model.Pedido{}).Where("id = ?", p.ID).
		Select("Estado", "Total", "Vuelto", "ReadyAt", "DeliveredAt").
		Updates(p).Error
}

func (r *pedidoRepo) UpdateItemTx(tx *gorm.DB, item *model.PedidoItem) error {
	return tx.Model(&model.PedidoItem{}).Where("id = ?", item.ID).
		Select("Cantidad", "EntregadoAt").
		Updates(item).Error
}

func (r *pedidoRepo) UpdateUnidadTx(tx *gorm.DB, u *model.UnidadProduccion) error {
	return tx.Model(&model.UnidadProduccion{}).Where("id = ?", u.ID).
		Select("Estado", "Operador", "DeliveredAt").
		Updates(u).Error
}

func (r *pedidoRepo) AgregarUnidadesTx(tx *gorm.DB, unidades []model.UnidadProduccion) error {
	return tx.Create(&unidades).Error
}

func (r *pedidoRepo) EliminarUnidadesTx(tx *gorm.DB, ids []uuid.UUID) error {
	return tx.Delete(&model.UnidadProduccion{}, "id IN ?", ids).Error
}

func (r *pedidoRepo) ListActivos(ctx context.Context, sesionOperativaID uuid.UUID) ([]model.Pedido, error) {
	var pedidos []model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Items.Unidades").
		Preload("Pagos").
		Where("sesion_operativa_id = ? AND estado NOT IN ?", sesionOperativaID,
			[]string{model.PedidoEntregado, model.PedidoCancelado}).
		Order("created_at ASC").
		Find(&pedidos).Error
	return pedidos, err
}

func (r *pedidoRepo) PurgarActivosTx(tx *gorm.DB, sesionOperativaID uuid.UUID) (int64, error) {
	res := tx.Model(&model.Pedido{}).
		Where("sesion_operativa_id = ? AND estado NOT IN ?", sesionOperativaID,
			[]string{model.PedidoEntregado, model.PedidoCancelado}).
		Update("estado", model.PedidoCancelado)
	return res.RowsAffected, res.Error
}
