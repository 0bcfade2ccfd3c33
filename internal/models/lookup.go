package models

// Reference entities. Read-only to invoicing; rows come from the seed data.

type Country struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:8;not null;unique" json:"code"`
	Name string `gorm:"not null" json:"name"`
}

type Unit struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:16;not null;unique" json:"code"`
	Name string `gorm:"not null" json:"name"`
}

func (Unit) TableName() string { return "units" }
