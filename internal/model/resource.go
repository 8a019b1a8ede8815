package model

const DefaultColor = "#3788d8"

// Resource is something a home can book: a room, a car, a projector.
type Resource struct {
	ID     string `db:"id"      json:"id"`
	HomeID string `db:"home_id" json:"home_id"`
	Name   string `db:"name"    json:"name"`
	Color  string `db:"color"   json:"color"`
}
