package models

import "time"

type Agency struct {
	Base
	Name         string  `gorm:"type:varchar(255);not null" json:"name"`
	Description  *string `gorm:"type:text" json:"description"`
	ContactEmail *string `gorm:"type:varchar(255)" json:"contact_email"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`

	// Relations
	Teams []Team `gorm:"foreignKey:AgencyID" json:"teams,omitempty"`
}

type Team struct {
	Base
	Name         string  `gorm:"type:varchar(255);not null" json:"name"`
	Description  *string `gorm:"type:text" json:"description"`
	AgencyID     *string `gorm:"type:varchar(36);index" json:"agency_id"`
	IsAgencyTeam bool    `gorm:"not null;default:false" json:"is_agency_team"`

	// Relations
	Agency  *Agency      `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

type TeamMember struct {
	TeamID    string    `gorm:"type:varchar(36);primaryKey" json:"team_id"`
	UserID    string    `gorm:"type:varchar(36);primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}
