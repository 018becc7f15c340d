package repository

import (
	"context"

	"blendresto/internal/model"

	"gorm.io/gorm"
)

type SesionOperativaRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, s *model.SesionOperativa) error
	CreateTx(tx *gorm.DB, s *model.SesionOperativa) error
	FindAbierta(ctx context.Context) (*model.SesionOperativa, error)
	UpdateTx(tx *gorm.DB, s *model.SesionOperativa) error
	// SiguientePinTx bumps the session's pin sequence and returns the new
	// value. Called inside the checkout transaction.
	SiguientePinTx(tx *gorm.DB, s *model.SesionOperativa) (int, error)
}

type sesionOperativaRepo struct{ db *gorm.DB }

func NewSesionOperativaRepository(db *gorm.DB) SesionOperativaRepository {
	return &sesionOperativaRepo{db: db}
}

func (r *sesionOperativaRepo) DB() *gorm.DB { return r.db }

func (r *sesionOperativaRepo) Create(ctx context.Context, s *model.SesionOperativa) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sesionOperativaRepo) CreateTx(tx *gorm.DB, s *model.SesionOperativa) error {
	return tx.Create(s).Error
}

func (r *sesionOperativaRepo) FindAbierta(ctx context.Context) (*model.SesionOperativa, error) {
	var s model.SesionOperativa
	err := r.db.WithContext(ctx).Where("estado = ?", model.OperativaAbierta).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sesionOperativaRepo) UpdateTx(tx *gorm.DB, s *model.SesionOperativa) error {
	return tx.Model(&model.SesionOperativa{}).Where("id = ?", s.ID).
		Select("Estado", "PinSeq", "ClosedAt").
		Updates(s).Error
}

func (r *sesionOperativaRepo) SiguientePinTx(tx *gorm.DB, s *model.SesionOperativa) (int, error) {
	if err := tx.Model(&model.SesionOperativa{}).Where("id = ?", s.ID).
		Update("pin_seq", gorm.Expr("pin_seq + 1")).Error; err != nil {
		return 0, err
	}
	var actual model.SesionOperativa
	if err := tx.First(&actual, "id = ?", s.ID).Error; err != nil {
		return 0, err
	}
	s.PinSeq = actual.PinSeq
	return actual.PinSeq, nil
}
