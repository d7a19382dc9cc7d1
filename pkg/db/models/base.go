package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills a missing primary key so rows carry an id before insert
// regardless of the dialect's column defaults.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (e *Establishment) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

func (e *Equipment) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

func (o *ServiceOrder) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

func (a *Activity) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

func (n *Note) BeforeCreate(*gorm.DB) error {
	assignID(&n.ID)
	return nil
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}
