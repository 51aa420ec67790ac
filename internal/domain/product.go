package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceType describes what a quoted price refers to.
type PriceType string

const (
	PriceTypePerUnit PriceType = "per_unit"
	PriceTypePerPack PriceType = "per_pack"
	PriceTypePerBulk PriceType = "per_bulk"
)

// Document is a downloadable attachment such as a datasheet or drawing.
type Document struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     *int64 `json:"size,omitempty"`
}

// Product represents a connector or cable in the catalog.
// The ID doubles as the pagination cursor, so it must never change.
type Product struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	SKU         string     `json:"sku" db:"sku"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	MPN         *string    `json:"mpn,omitempty" db:"mpn"`
	CategoryID  *uuid.UUID `json:"categoryId,omitempty" db:"category_id"`

	// Technical specification
	ProductType            *string `json:"productType,omitempty" db:"product_type"`
	ConnectorType          *string `json:"connectorType,omitempty" db:"connector_type"`
	Code                   *string `json:"code,omitempty" db:"coding"`
	Pins                   *int    `json:"pins,omitempty" db:"pins"`
	Gender                 *string `json:"gender,omitempty" db:"gender"`
	DegreeOfProtection     *string `json:"degreeOfProtection,omitempty" db:"ip_rating"`
	Coupling               *string `json:"coupling,omitempty" db:"coupling"`
	WireCrossSection       *string `json:"wireCrossSection,omitempty" db:"wire_cross_section"`
	TemperatureRange       *string `json:"temperatureRange,omitempty" db:"temperature_range"`
	CableDiameter          *string `json:"cableDiameter,omitempty" db:"cable_diameter"`
	CableMantleColor       *string `json:"cableMantleColor,omitempty" db:"cable_mantle_color"`
	CableMantleMaterial    *string `json:"cableMantleMaterial,omitempty" db:"cable_mantle_material"`
	CableLength            *string `json:"cableLength,omitempty" db:"cable_length"`
	GlandMaterial          *string `json:"glandMaterial,omitempty" db:"gland_material"`
	HousingMaterial        *string `json:"housingMaterial,omitempty" db:"housing_material"`
	PinContact             *string `json:"pinContact,omitempty" db:"pin_contact"`
	SocketContact          *string `json:"socketContact,omitempty" db:"socket_contact"`
	CableDragChainSuitable *bool   `json:"cableDragChainSuitable,omitempty" db:"cable_drag_chain_suitable"`
	TighteningTorqueMax    *string `json:"tighteningTorqueMax,omitempty" db:"tightening_torque_max"`
	BendingRadiusFixed     *string `json:"bendingRadiusFixed,omitempty" db:"bending_radius_fixed"`
	BendingRadiusRepeated  *string `json:"bendingRadiusRepeated,omitempty" db:"bending_radius_repeated"`
	ContactPlating         *string `json:"contactPlating,omitempty" db:"contact_plating"`
	OperatingVoltage       *string `json:"operatingVoltage,omitempty" db:"voltage"`
	RatedCurrent           *string `json:"ratedCurrent,omitempty" db:"current"`
	HalogenFree            *bool   `json:"halogenFree,omitempty" db:"halogen_free"`
	StrippingForce         *string `json:"strippingForce,omitempty" db:"stripping_force"`

	// Commercial
	Price         decimal.NullDecimal `json:"price" db:"price"`
	PriceType     *PriceType          `json:"priceType,omitempty" db:"price_type"`
	InStock       bool                `json:"inStock" db:"in_stock"`
	StockQuantity *int                `json:"stockQuantity,omitempty" db:"stock_quantity"`

	// Media
	Images       StringList   `json:"images" db:"images"`
	Documents    DocumentList `json:"documents" db:"documents"`
	DatasheetURL *string      `json:"datasheetUrl,omitempty" db:"datasheet_url"`
	DrawingURL   *string      `json:"drawingUrl,omitempty" db:"drawing_url"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Category represents a node in the category tree.
type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	Description string     `json:"description" db:"description"`
	Image       *string    `json:"image,omitempty" db:"image"`
	ParentID    *uuid.UUID `json:"parentId,omitempty" db:"parent_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// StringList is an ordered list of strings stored as a JSONB array.
type StringList []string

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

// DocumentList is an ordered list of documents stored as a JSONB array.
type DocumentList []Document

// Scan implements sql.Scanner.
func (l *DocumentList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Value implements driver.Valuer.
func (l DocumentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Document(l))
	return string(b), err
}

func scanJSON(src interface{}, dest interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
