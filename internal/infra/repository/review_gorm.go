package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/domain/review"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

var _ review.Repository = (*ReviewGormRepository)(nil)

func (r *ReviewGormRepository) GetBarbershopBySlug(ctx context.Context, slug string) (*models.Barbershop, error) {
	var shop models.Barbershop
	if err := r.db.WithContext(ctx).Where("slug = ? AND active = ?", slug, true).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *ReviewGormRepository) GetBarber(ctx context.Context, barbershopID, barberID uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", barberID, barbershopID).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *ReviewGormRepository) GetClient(ctx context.Context, barbershopID, clientID uint) (*models.Client, error) {
	var cl models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", clientID, barbershopID).
		First(&cl).Error; err != nil {
		return nil, err
	}
	return &cl, nil
}

func (r *ReviewGormRepository) GetAppointment(ctx context.Context, barbershopID, appointmentID uint) (*models.Appointment, error) {
	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND barbershop_id = ?", appointmentID, barbershopID).
		First(&ap).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *ReviewGormRepository) HasAppointmentReview(ctx context.Context, appointmentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error
	return count > 0, err
}

func (r *ReviewGormRepository) CreateReview(ctx context.Context, rv *models.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewGormRepository) ListReviews(ctx context.Context, f review.Filter) ([]models.Review, error) {
	q := r.db.WithContext(ctx).Where("barbershop_id = ?", f.BarbershopID)
	if f.BarberID != nil {
		q = q.Where("barber_id = ?", *f.BarberID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.Review
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}
