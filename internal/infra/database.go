package infra

import (
	"fmt"

	"blendresto/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the per-terminal SQLite store and migrates the schema.
// The store is exclusively owned by this terminal process: WAL mode keeps
// reads cheap while the single writer commits, and the busy timeout covers
// the brief overlap between the command path and the sync engine's merges.
func NewDatabase(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; serialize all access through one conn.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Producto{},
		&model.GrupoModificador{},
		&model.OpcionModificador{},
		&model.Categoria{},
		&model.SesionOperativa{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.Pedido{},
		&model.PedidoItem{},
		&model.UnidadProduccion{},
		&model.Pago{},
		&model.TicketCocina{},
		&model.EventoSync{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	return db, nil
}
