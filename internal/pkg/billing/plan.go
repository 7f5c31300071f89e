package billing

import (
	"strings"

	"github.com/eldarmv/listora/app/models"
)

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	switch r {
	case models.RoleLandlord, models.RoleSeller:
		return r
	default:
		return ""
	}
}
