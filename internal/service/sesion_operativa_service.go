package service

import (
	"context"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type SesionOperativaService interface {
	// Abrir opens the shift. At most one shift can be open on a terminal.
	Abrir(ctx context.Context) (*dto.SesionOperativaResponse, error)
	// Cerrar closes the shift: non-terminal pedidos are marked cancelados
	// (history survives, active views drain) and the pin sequence dies with
	// the session.
	Cerrar(ctx context.Context) (*dto.SesionOperativaResponse, error)
	Actual(ctx context.Context) (*dto.SesionOperativaResponse, error)
}

type sesionOperativaService struct {
	repo       repository.SesionOperativaRepository
	pedidoRepo repository.PedidoRepository
	outbox     repository.OutboxRepository
	bus        *events.Bus
	perfil     config.PerfilDispositivo
}

func NewSesionOperativaService(repo repository.SesionOperativaRepository, pedidoRepo repository.PedidoRepository, outbox repository.OutboxRepository, bus *events.Bus, perfil config.PerfilDispositivo) SesionOperativaService {
	return &sesionOperativaService{repo: repo, pedidoRepo: pedidoRepo, outbox: outbox, bus: bus, perfil: perfil}
}

func (s *sesionOperativaService) Abrir(ctx context.Context) (*dto.SesionOperativaResponse, error) {
	if _, err := s.repo.FindAbierta(ctx); err == nil {
		return nil, ErrSesionOperativaDup
	}

	sesion := &model.SesionOperativa{
		ID:       uuid.New(),
		Estado:   model.OperativaAbierta,
		PinSeq:   0,
		OpenedAt: time.Now(),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, sesion); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "sesiones_operativas", sesion, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "sesiones_operativas", ID: sesion.ID})
	return sesionOperativaToResponse(sesion, nil), nil
}

func (s *sesionOperativaService) Cerrar(ctx context.Context) (*dto.SesionOperativaResponse, error) {
	sesion, err := s.repo.FindAbierta(ctx)
	if err != nil {
		return nil, ErrSinSesionOperativa
	}

	ahora := time.Now()
	var purgados int64
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		n, err := s.pedidoRepo.PurgarActivosTx(tx, sesion.ID)
		if err != nil {
			return err
		}
		purgados = n

		sesion.Estado = model.OperativaCerrada
		sesion.ClosedAt = &ahora
		if err := s.repo.UpdateTx(tx, sesion); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "sesiones_operativas", sesion, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	if purgados > 0 {
		log.Info().Int64("pedidos", purgados).Msg("pedidos activos purgados al cerrar la sesion operativa")
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "sesiones_operativas", ID: sesion.ID})
	return sesionOperativaToResponse(sesion, &purgados), nil
}

func (s *sesionOperativaService) Actual(ctx context.Context) (*dto.SesionOperativaResponse, error) {
	sesion, err := s.repo.FindAbierta(ctx)
	if err != nil {
		return nil, ErrSinSesionOperativa
	}
	return sesionOperativaToResponse(sesion, nil), nil
}

func sesionOperativaToResponse(s *model.SesionOperativa, purgados *int64) *dto.SesionOperativaResponse {
	return &dto.SesionOperativaResponse{
		ID:              s.ID.String(),
		Estado:          s.Estado,
		PinSeq:          s.PinSeq,
		OpenedAt:        fmtTime(s.OpenedAt),
		ClosedAt:        fmtTimePtr(s.ClosedAt),
		PedidosPurgados: purgados,
	}
}
