package service

import (
	"context"
	"strings"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CajaService interface {
	// Abrir opens the drawer for this device. Fails with ErrCajaYaAbierta if
	// this device already has an open session.
	Abrir(ctx context.Context, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	// RegistrarMovimiento appends a manual ingreso/egreso to the open session.
	RegistrarMovimiento(ctx context.Context, req dto.MovimientoCajaRequest) (*dto.MovimientoCajaResponse, error)
	// Cerrar seals the open session: computes the expected amount from the
	// ledger, the deviation against the declared count, and requires a
	// justification when the deviation exceeds the tolerance.
	Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.SesionCajaResponse, error)
	Activa(ctx context.Context) (*dto.SesionCajaResponse, error)
	Reporte(ctx context.Context, id uuid.UUID) (*dto.SesionCajaResponse, error)
	Historial(ctx context.Context, page, limit int) ([]dto.SesionCajaResponse, int64, error)
}

type cajaService struct {
	repo   repository.CajaRepository
	outbox repository.OutboxRepository
	bus    *events.Bus
	perfil config.PerfilDispositivo
}

func NewCajaService(repo repository.CajaRepository, outbox repository.OutboxRepository, bus *events.Bus, perfil config.PerfilDispositivo) CajaService {
	return &cajaService{repo: repo, outbox: outbox, bus: bus, perfil: perfil}
}

// contarDenominaciones folds a bill/coin breakdown into a flat amount.
func contarDenominaciones(denominaciones []dto.DenominacionRequest) decimal.Decimal {
	total := decimal.Zero
	for _, d := range denominaciones {
		total = total.Add(d.Valor.Mul(decimal.NewFromInt(int64(d.Cantidad))))
	}
	return total
}

func (s *cajaService) Abrir(ctx context.Context, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if _, err := s.repo.FindSesionAbierta(ctx, s.perfil.DeviceID); err == nil {
		return nil, ErrCajaYaAbierta
	}

	var inicial decimal.Decimal
	switch {
	case len(req.Denominaciones) > 0:
		inicial = contarDenominaciones(req.Denominaciones)
	case req.MontoInicial != nil:
		inicial = *req.MontoInicial
	default:
		return nil, ErrMontoInvalido
	}
	if inicial.IsNegative() {
		return nil, ErrMontoInvalido
	}

	sesion := &model.SesionCaja{
		ID:           uuid.New(),
		Operador:     req.Operador,
		DeviceID:     s.perfil.DeviceID,
		MontoInicial: inicial,
		Estado:       model.CajaAbierta,
		OpenedAt:     time.Now(),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateSesionTx(tx, sesion); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "sesiones_caja", sesion, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "sesiones_caja", ID: sesion.ID})
	return sesionToResponse(sesion, nil), nil
}

func (s *cajaService) RegistrarMovimiento(ctx context.Context, req dto.MovimientoCajaRequest) (*dto.MovimientoCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx, s.perfil.DeviceID)
	if err != nil {
		return nil, ErrSinSesionCaja
	}
	if !req.Monto.IsPositive() {
		return nil, ErrMontoInvalido
	}

	mov := &model.MovimientoCaja{
		ID:           uuid.New(),
		SesionCajaID: sesion.ID,
		Tipo:         req.Tipo,
		Monto:        req.Monto,
		Descripcion:  req.Descripcion,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateMovimientoTx(tx, mov); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "movimientos_caja", mov, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "movimientos_caja", ID: mov.ID})
	resp := movimientoToResponse(mov)
	return &resp, nil
}

func (s *cajaService) Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx, s.perfil.DeviceID)
	if err != nil {
		return nil, ErrSinSesionCaja
	}

	movimientos, err := s.repo.ListMovimientos(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	esperado := model.CalcularEsperado(sesion.MontoInicial, movimientos)

	var declarado decimal.Decimal
	switch {
	case len(req.Denominaciones) > 0:
		declarado = contarDenominaciones(req.Denominaciones)
	case req.Declarado != nil:
		declarado = *req.Declarado
	default:
		return nil, ErrMontoInvalido
	}

	desvio := declarado.Sub(esperado)
	if desvio.Abs().GreaterThan(tolerancia) {
		if req.Justificacion == nil || len(strings.TrimSpace(*req.Justificacion)) < 10 {
			return nil, ErrJustificacionCorta
		}
		sesion.Justificacion = req.Justificacion
	}

	ahora := time.Now()
	sesion.Estado = model.CajaCerrada
	sesion.MontoEsperado = &esperado
	sesion.MontoDeclarado = &declarado
	sesion.Desvio = &desvio
	sesion.ClosedAt = &ahora

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateSesionTx(tx, sesion); err != nil {
			return err
		}
		return s.outbox.AppendTx(tx, "sesiones_caja", sesion, s.perfil.UnitID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.bus.Publish(events.Evento{Origen: events.OrigenLocal, Tabla: "sesiones_caja", ID: sesion.ID})
	return sesionToResponse(sesion, movimientos), nil
}

func (s *cajaService) Activa(ctx context.Context) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx, s.perfil.DeviceID)
	if err != nil {
		return nil, ErrSinSesionCaja
	}
	movimientos, err := s.repo.ListMovimientos(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	// The running expected amount is useful mid-session too
	esperado := model.CalcularEsperado(sesion.MontoInicial, movimientos)
	resp := sesionToResponse(sesion, movimientos)
	resp.MontoEsperado = &esperado
	return resp, nil
}

func (s *cajaService) Reporte(ctx context.Context, id uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sesionToResponse(sesion, sesion.Movimientos), nil
}

func (s *cajaService) Historial(ctx context.Context, page, limit int) ([]dto.SesionCajaResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sesiones, total, err := s.repo.ListSesiones(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SesionCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		out = append(out, *sesionToResponse(&sesiones[i], nil))
	}
	return out, total, nil
}

func movimientoToResponse(m *model.MovimientoCaja) dto.MovimientoCajaResponse {
	return dto.MovimientoCajaResponse{
		ID:          m.ID.String(),
		Tipo:        m.Tipo,
		Monto:       m.Monto,
		Descripcion: m.Descripcion,
		CreatedAt:   fmtTime(m.CreatedAt),
	}
}

func sesionToResponse(s *model.SesionCaja, movimientos []model.MovimientoCaja) *dto.SesionCajaResponse {
	resp := &dto.SesionCajaResponse{
		ID:             s.ID.String(),
		Operador:       s.Operador,
		Estado:         s.Estado,
		MontoInicial:   s.MontoInicial,
		MontoEsperado:  s.MontoEsperado,
		MontoDeclarado: s.MontoDeclarado,
		Desvio:         s.Desvio,
		Justificacion:  s.Justificacion,
		OpenedAt:       fmtTime(s.OpenedAt),
		ClosedAt:       fmtTimePtr(s.ClosedAt),
	}
	for i := range movimientos {
		resp.Movimientos = append(resp.Movimientos, movimientoToResponse(&movimientos[i]))
	}
	return resp
}
