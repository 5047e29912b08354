package model

type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_name,where:deleted_at IS NULL" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}
