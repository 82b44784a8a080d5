package models

import "time"

type Author struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;not null"`
	Bio  string `json:"bio" gorm:"type:text"`
}

type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:40;not null"`
}

type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:20;not null"`
}

// Article is a blog post.
type Article struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Title      string    `json:"title" gorm:"size:200;not null"`
	Content    string    `json:"content,omitempty" gorm:"type:text"`
	PubDate    time.Time `json:"pub_date"`
	AuthorID   uint      `json:"-" gorm:"index;not null"`
	Author     Author    `json:"author"`
	CategoryID uint      `json:"-" gorm:"index;not null"`
	Category   Category  `json:"category"`
	Tags       []Tag     `json:"tags" gorm:"many2many:article_tags"`
}
