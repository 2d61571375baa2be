package gormrepo

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitRecord is the units table
type UnitRecord struct {
	ID               string          `gorm:"type:varchar(36);primaryKey"`
	Title            string          `gorm:"type:varchar(100);not null"`
	Symbol           string          `gorm:"type:varchar(20)"`
	BaseUnitID       *string         `gorm:"type:varchar(36);index"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (UnitRecord) TableName() string { return "units" }

func (u *UnitRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ProductRecord is the products table
type ProductRecord struct {
	ID         string         `gorm:"type:varchar(36);primaryKey"`
	Code       string         `gorm:"type:varchar(100);index;not null"`
	Name       string         `gorm:"type:varchar(255)"`
	UnitID     string         `gorm:"type:varchar(36);index;not null"`
	Unit       *UnitRecord    `gorm:"foreignKey:UnitID"`
	SupplyType int            `gorm:"not null;default:0"`
	RowVersion int64          `gorm:"not null;default:1"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (ProductRecord) TableName() string { return "products" }

func (p *ProductRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BOMHeaderRecord is the bom_headers table
type BOMHeaderRecord struct {
	ID         string         `gorm:"type:varchar(36);primaryKey"`
	ProductID  string         `gorm:"type:varchar(36);index;not null"`
	Product    *ProductRecord `gorm:"foreignKey:ProductID"`
	Title      string         `gorm:"type:varchar(255)"`
	Version    string         `gorm:"type:varchar(50);not null"`
	Status     int            `gorm:"not null;default:0;index"`
	Type       int            `gorm:"not null;default:0"`
	FromDate   *time.Time
	ToDate     *time.Time
	IsActive   bool              `gorm:"not null;default:false;index"`
	RowVersion int64             `gorm:"not null;default:1"`
	Details    []BOMDetailRecord `gorm:"foreignKey:BOMHeaderID"`
	CreatedAt  time.Time         `gorm:"autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt    `gorm:"index"`
}

func (BOMHeaderRecord) TableName() string { return "bom_headers" }

func (h *BOMHeaderRecord) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// BOMDetailRecord is the bom_details table. Lines are hard-deleted when an update drops
// them; Position keeps the authored order.
type BOMDetailRecord struct {
	ID              string                `gorm:"type:varchar(36);primaryKey"`
	BOMHeaderID     string                `gorm:"type:varchar(36);index;not null"`
	Position        int                   `gorm:"not null;default:0"`
	ChildProductID  string                `gorm:"type:varchar(36);index;not null"`
	ChildProduct    *ProductRecord        `gorm:"foreignKey:ChildProductID"`
	Quantity        decimal.Decimal       `gorm:"type:decimal(18,6);not null"`
	WastePercentage decimal.Decimal       `gorm:"type:decimal(9,6);not null;default:0"`
	InputQuantity   decimal.Decimal       `gorm:"type:decimal(18,6);not null;default:0"`
	InputUnitID     *string               `gorm:"type:varchar(36)"`
	Substitutes     []BOMSubstituteRecord `gorm:"foreignKey:BOMDetailID"`
}

func (BOMDetailRecord) TableName() string { return "bom_details" }

func (d *BOMDetailRecord) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// BOMSubstituteRecord is the bom_substitutes table
type BOMSubstituteRecord struct {
	ID                  string          `gorm:"type:varchar(36);primaryKey"`
	BOMDetailID         string          `gorm:"type:varchar(36);index;not null"`
	Position            int             `gorm:"not null;default:0"`
	SubstituteProductID string          `gorm:"type:varchar(36);index;not null"`
	SubstituteProduct   *ProductRecord  `gorm:"foreignKey:SubstituteProductID"`
	Priority            int             `gorm:"not null"`
	Factor              decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	IsMixAllowed        bool            `gorm:"not null;default:false"`
	MaxMixPercentage    decimal.Decimal `gorm:"type:decimal(9,6);not null;default:0"`
}

func (BOMSubstituteRecord) TableName() string { return "bom_substitutes" }

func (s *BOMSubstituteRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// AutoMigrate creates or updates every table the gateway uses
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UnitRecord{},
		&ProductRecord{},
		&BOMHeaderRecord{},
		&BOMDetailRecord{},
		&BOMSubstituteRecord{},
	)
}
