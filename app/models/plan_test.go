package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanNormalize(t *testing.T) {
	p := &Plan{Name: PlanNameFree, Price: 999}
	p.Normalize()
	assert.Equal(t, int64(0), p.Price, "free plan price is forced to zero")

	paid := &Plan{Name: PlanNamePremium, Price: 2499}
	paid.Normalize()
	assert.Equal(t, int64(2499), paid.Price)
}

func TestPlanIsFree(t *testing.T) {
	assert.True(t, (&Plan{Price: 0}).IsFree())
	assert.False(t, (&Plan{Price: 1}).IsFree())
}

func TestPlanAllowsRole(t *testing.T) {
	both := &Plan{Role: RoleBoth}
	assert.True(t, both.AllowsRole(RoleLandlord))
	assert.True(t, both.AllowsRole(RoleSeller))

	landlordOnly := &Plan{Role: RoleLandlord}
	assert.True(t, landlordOnly.AllowsRole(RoleLandlord))
	assert.False(t, landlordOnly.AllowsRole(RoleSeller))
}

func TestPlanDuration(t *testing.T) {
	p := &Plan{DurationDays: 30}
	assert.Equal(t, 30*24*time.Hour, p.Duration())
}

func TestPlanValidate(t *testing.T) {
	valid := &Plan{
		Name:          PlanNamePremium,
		Price:         2499,
		Currency:      "EUR",
		BillingPeriod: BillingPeriodMonthly,
		DurationDays:  30,
		Role:          RoleBoth,
	}
	assert.NoError(t, valid.Validate())

	invalidName := *valid
	invalidName.Name = "platinum"
	assert.Error(t, invalidName.Validate(), "plan names are a closed set")

	invalidPeriod := *valid
	invalidPeriod.BillingPeriod = "weekly"
	assert.Error(t, invalidPeriod.Validate())

	invalidRole := *valid
	invalidRole.Role = "admin"
	assert.Error(t, invalidRole.Validate())

	negativePrice := *valid
	negativePrice.Price = -1
	assert.Error(t, negativePrice.Validate())

	zeroDuration := *valid
	zeroDuration.DurationDays = 0
	assert.Error(t, zeroDuration.Validate())
}
