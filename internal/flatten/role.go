package flatten

import (
	"strings"

	"github.com/bighogz/form4-sales/internal/models"
)

const (
	RoleDirector        = "Director"
	RoleTenPercentOwner = "10% Owner"
)

// Role derives the Box 5 label. Director wins over 10% owner, which wins
// over an officer title, even when the filer reports several relationships.
func Role(rel models.Relationship) models.Field {
	switch {
	case rel.IsDirector.Truthy():
		return models.Value(RoleDirector)
	case rel.IsTenPercentOwner.Truthy():
		return models.Value(RoleTenPercentOwner)
	case rel.IsOfficer.Truthy() && rel.OfficerTitle.Present() && strings.TrimSpace(rel.OfficerTitle.String()) != "":
		return rel.OfficerTitle
	}
	return models.Missing
}
