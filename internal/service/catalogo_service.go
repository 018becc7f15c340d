package service

import (
	"context"
	"fmt"

	"blendresto/internal/config"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogoService interface {
	ListProductos(ctx context.Context, soloActivos bool) ([]dto.ProductoResponse, error)
	Buscar(ctx context.Context, q string) ([]dto.ProductoResponse, error)
	// Upsert creates or fully replaces a product and its modifier graph. The
	// change reaches every other terminal of the unit through the outbox.
	Upsert(ctx context.Context, req dto.UpsertProductoRequest) (*dto.ProductoResponse, error)
	ListCategorias(ctx context.Context) ([]dto.CategoriaResponse, error)
}

type catalogoService struct {
	repo   repository.CatalogoRepository
	outbox repository.OutboxRepository
	bus    *events.Bus
	perfil config.PerfilDispositivo
}

func NewCatalogoService(repo repository.CatalogoRepository, outbox repository.OutboxRepository, bus *events.Bus, perfil config.PerfilDispositivo) CatalogoService {
	return &catalogoService{repo: repo, outbox: outbox, bus: bus, perfil: perfil}
}

func (s *catalogoService) ListProductos(ctx context.Context, soloActivos bool) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.ListProductos(ctx, soloActivos)
	if err != nil {
		return nil, err
	}
	return productosToResponse(productos), nil
}

func (s *catalogoService) Buscar(ctx context.Context, q string) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.BuscarProductos(ctx, q)
	if err != nil {
		return nil, err
	}
	return productosToResponse(productos), nil
}

func (s *catalogoService) Upsert(ctx context.Context, req dto.UpsertProductoRequest) (*dto.ProductoResponse, error) {
	categoriaID, err := uuid.Parse(req.CategoriaID)
	if err != nil {
		return nil, fmt.Errorf("categoria_id invalido: %w", err)
	}
	if _, err := s.repo.FindCategoriaByID(ctx, categoriaID); err != nil {
		return nil, fmt.Errorf("categoria no encontrada: %w", err)
	}

	id := uuid.New()
	if req.ID != "" {
		if id, err = uuid.Parse(req.ID); err != nil {
			return nil, fmt.Errorf("id invalido: %w", err)
		}
	}

	producto := &model.Producto{
		ID:             id,
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		CategoriaID:    categoriaID,
		Precio:         req.Precio,
		EntregaDirecta: req.EntregaDirecta,
		Activo:         req.Activo,
	}
	for _, g := range req.Grupos {
		grupoID := uuid.New()
		if g.ID != "" {
			if grupoID, err = uuid.Parse(g.ID); err != nil {
				return nil, fmt.Errorf("grupo id invalido: %w", err)
			}
		}
		grupo := model.GrupoModificador{
			ID:          grupoID,
			ProductoID:  id,
			Nombre:      g.Nombre,
			Obligatorio: g.Obligatorio,
			Activo:      g.Activo,
		}
		for _, o := range g.Opciones {
			opcionID := uuid.New()
			if o.ID != "" {
				if opcionID, err = uuid.Parse(o.ID); err != nil {
					return nil, fmt.Errorf("opcion id invalido: %w", err)
				}
			}
			grupo.Opciones = append(grupo.Opciones, model.OpcionModificador{
				ID:          opcionID,
				GrupoID:     grupoID,
				Nombre:      o.Nombre,
				PrecioExtra: o.PrecioExtra,
			})
		}
		producto.Grupos = append(producto.Grupos, grupo)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpsertProductoTx(tx, producto); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "productos", producto, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "productos", ID: producto.ID})
	resp := productoToResponse(producto)
	return &resp, nil
}

func (s *catalogoService) ListCategorias(ctx context.Context) ([]dto.CategoriaResponse, error) {
	categorias, err := s.repo.ListCategorias(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoriaResponse, 0, len(categorias))
	for _, c := range categorias {
		out = append(out, dto.CategoriaResponse{ID: c.ID.String(), Nombre: c.Nombre, Icono: c.Icono})
	}
	return out, nil
}

func productosToResponse(productos []model.Producto) []dto.ProductoResponse {
	out := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		out = append(out, productoToResponse(&productos[i]))
	}
	return out
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	resp := dto.ProductoResponse{
		ID:             p.ID.String(),
		Nombre:         p.Nombre,
		Descripcion:    p.Descripcion,
		CategoriaID:    p.CategoriaID.String(),
		Precio:         p.Precio,
		EntregaDirecta: p.EntregaDirecta,
		Activo:         p.Activo,
		Grupos:         []dto.GrupoModificadorResponse{},
	}
	for _, g := range p.Grupos {
		grupo := dto.GrupoModificadorResponse{
			ID:          g.ID.String(),
			Nombre:      g.Nombre,
			Obligatorio: g.Obligatorio,
			Activo:      g.Activo,
			Opciones:    []dto.OpcionModificadorResponse{},
		}
		for _, o := range g.Opciones {
			grupo.Opciones = append(grupo.Opciones, dto.OpcionModificadorResponse{
				ID:          o.ID.String(),
				Nombre:      o.Nombre,
				PrecioExtra: o.PrecioExtra,
			})
		}
		resp.Grupos = append(resp.Grupos, grupo)
	}
	return resp
}
