package models

type Comment struct {
	Base
	TaskID         string `gorm:"type:varchar(36);not null;index" json:"task_id"`
	UserID         string `gorm:"type:varchar(36);not null" json:"user_id"`
	Content        string `gorm:"type:text;not null" json:"content"`
	IsInternalOnly bool   `gorm:"not null;default:false" json:"is_internal_only"`

	// Relations
	User     *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Mentions []CommentMention `gorm:"foreignKey:CommentID" json:"mentions,omitempty"`
}

// InternalOnly reports whether the comment is hidden from agency users.
func (c Comment) InternalOnly() bool {
	return c.IsInternalOnly
}

type CommentMention struct {
	CommentID string `gorm:"type:varchar(36);primaryKey" json:"comment_id"`
	UserID    string `gorm:"type:varchar(36);primaryKey;index" json:"user_id"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
