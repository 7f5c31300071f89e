package repository

import (
	"github.com/eldarmv/listora/app/models"
	"gorm.io/gorm"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(plan *models.Plan) error {
	return r.db.Create(plan).Error
}

func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) ListActiveByRole(role string) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.
		Where("is_active = ? AND (role = ? OR role = ?)", true, role, models.RoleBoth).
		Order("price ASC").
		Find(&plans).Error
	return plans, err
}

func (r *planRepository) List(offset, limit int) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Offset(offset).Limit(limit).Order("id ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) Update(plan *models.Plan) error {
	return r.db.Save(plan).Error
}

func (r *planRepository) Delete(id uint) error {
	return r.db.Delete(&models.Plan{}, id).Error
}

func (r *planRepository) CountActiveSubscriptions(planID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).
		Where("plan_id = ? AND status = ?", planID, models.SubscriptionStatusActive).
		Count(&count).Error
	return count, err
}
