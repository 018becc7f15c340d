package repository

import (
	"context"

	"blendresto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogoRepository interface {
	DB() *gorm.DB
	ListProductos(ctx context.Context, soloActivos bool) ([]model.Producto, error)
	FindProductoByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	BuscarProductos(ctx context.Context, q string) ([]model.Producto, error)
	// UpsertProductoTx replaces the product and its modifier graph.
	UpsertProductoTx(tx *gorm.DB, p *model.Producto) error
	ListCategorias(ctx context.Context) ([]model.Categoria, error)
	FindCategoriaByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error)
}

type catalogoRepo struct{ db *gorm.DB }

func NewCatalogoRepository(db *gorm.DB) CatalogoRepository { return &catalogoRepo{db: db} }

func (r *catalogoRepo) DB() *gorm.DB { return r.db }

func (r *catalogoRepo) ListProductos(ctx context.Context, soloActivos bool) ([]model.Producto, error) {
	q := r.db.WithContext(ctx).Preload("Grupos.Opciones").Order("nombre ASC")
	if soloActivos {
		q = q.Where("activo = ?", true)
	}
	var productos []model.Producto
	err := q.Find(&productos).Error
	return productos, err
}

func (r *catalogoRepo) FindProductoByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Preload("Grupos.Opciones").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogoRepo) BuscarProductos(ctx context.Context, q string) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Preload("Grupos.Opciones").
		Where("activo = ? AND nombre LIKE ?", true, "%"+q+"%").
		Order("nombre ASC").
		Find(&productos).Error
	return productos, err
}

func (r *catalogoRepo) UpsertProductoTx(tx *gorm.DB, p *model.Producto) error {
	// Full overwrite of the modifier graph: simpler than diffing, and the
	// same path remote merges take.
	var grupoIDs []uuid.UUID
	if err := tx.Model(&model.GrupoModificador{}).Where("producto_id = ?", p.ID).
		Pluck("id", &grupoIDs).Error; err != nil {
		return err
	}
	if len(grupoIDs) > 0 {
		if err := tx.Where("grupo_id IN ?", grupoIDs).Delete(&model.OpcionModificador{}).Error; err != nil {
			return err
		}
		if err := tx.Where("producto_id = ?", p.ID).Delete(&model.GrupoModificador{}).Error; err != nil {
			return err
		}
	}
	return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(p).Error
}

func (r *catalogoRepo) ListCategorias(ctx context.Context) ([]model.Categoria, error) {
	var categorias []model.Categoria
	err := r.db.WithContext(ctx).Where("activo = ?", true).Order("nombre ASC").Find(&categorias).Error
	return categorias, err
}

func (r *catalogoRepo) FindCategoriaByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
