// Package journal keeps a durable record of every confirmed buy-order
// placement across runs.
package journal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Placement is one confirmed buy order as stored in the journal.
type Placement struct {
	gorm.Model  `json:"-"`
	PlacementID string    `gorm:"uniqueIndex" json:"placement_id"`
	ItemName    string    `json:"item_name"`
	Game        string    `json:"game"`
	PriceMinor  int64     `json:"price_minor_units"`
	Quantity    int       `json:"quantity"`
	Currency    string    `json:"currency"`
	OrderRef    string    `json:"order_ref"`
	PlacedAt    time.Time `json:"placed_at"`
}

// Journal wraps the GORM connection to the placement database.
type Journal struct {
	db *gorm.DB
}

// Open initializes the sqlite-backed journal and runs migrations.
func Open(dsn string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Placement{}); err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

// RecordPlacement appends a confirmed placement. The placement already
// happened on the marketplace, so callers treat journal failures as
// non-fatal and only log them.
func (j *Journal) RecordPlacement(p *Placement) error {
	if p.PlacementID == "" {
		p.PlacementID = uuid.New().String()
	}
	if p.PlacedAt.IsZero() {
		p.PlacedAt = time.Now()
	}
	return j.db.Create(p).Error
}

// RecentPlacements returns the newest placements, most recent first.
func (j *Journal) RecentPlacements(limit int) ([]Placement, error) {
	var placements []Placement
	err := j.db.Order("placed_at desc").Limit(limit).Find(&placements).Error
	return placements, err
}
