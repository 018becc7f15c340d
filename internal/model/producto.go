package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a menu entry. EntregaDirecta products (bottled drinks, desserts
// from the display fridge) skip the kitchen entirely.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	CategoriaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Precio      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EntregaDirecta bool         `gorm:"not null;default:false"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Grupos []GrupoModificador `gorm:"foreignKey:ProductoID"`
}

// GrupoModificador is a modifier group on a product ("Punto de cocción",
// "Acompañamiento"). An active obligatory group demands exactly one selected
// option at checkout.
type GrupoModificador struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductoID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Nombre      string    `gorm:"not null"`
	Obligatorio bool      `gorm:"not null;default:false"`
	Activo      bool      `gorm:"not null;default:true"`

	Opciones []OpcionModificador `gorm:"foreignKey:GrupoID"`
}

// OpcionModificador is one selectable option within a modifier group.
type OpcionModificador struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GrupoID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Nombre      string          `gorm:"not null"`
	PrecioExtra decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// Categoria groups products for the menu screens.
type Categoria struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre string    `gorm:"uniqueIndex;not null"`
	Icono  *string
	Activo bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
