package models

import (
	"estatehub/marketplace/internal/utils"
)

// PropertyStatus is the listing state owned by the property registry.
type PropertyStatus string

const (
	PropertyStatusPending   PropertyStatus = "pending"
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusSold      PropertyStatus = "sold"
)

// Property is the registry document. The booking core only reads Owner and writes
// Status and InterestedParties; everything else is maintained by the listing CRUD.
type Property struct {
	Base              `bson:",inline"`
	Name              string         `bson:"name" json:"name"`
	OwnerID           utils.SixID    `bson:"owner" json:"owner"`
	Price             float64        `bson:"price" json:"price"`
	PropertyType      string         `bson:"property_type" json:"property_type"` // "rent" or "sale"
	Address           string         `bson:"address,omitempty" json:"address,omitempty"`
	Status            PropertyStatus `bson:"status" json:"status"`
	IsActive          bool           `bson:"is_active" json:"isActive"`
	InterestedParties []utils.SixID  `bson:"interested_parties" json:"interestedParties"`
	Timestamps        `bson:",inline"`
}

// PropertySummary is the projection embedded in booking views.
type PropertySummary struct {
	ID           utils.SixID    `bson:"_id" json:"id"`
	Name         string         `bson:"name" json:"name"`
	Price        float64        `bson:"price" json:"price"`
	PropertyType string         `bson:"property_type" json:"property_type"`
	Address      string         `bson:"address,omitempty" json:"address,omitempty"`
	Status       PropertyStatus `bson:"status" json:"status"`
}

// Summary projects the property for list views.
func (p *Property) Summary() PropertySummary {
	return PropertySummary{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		PropertyType: p.PropertyType,
		Address:      p.Address,
		Status:       p.Status,
	}
}
