package model

import "time"

const (
	OfflineHomeID   = "offline"
	OfflineHomeName = "Offline Home"
)

type Home struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether userID owns or belongs to the home.
func (h Home) HasMember(userID string) bool {
	if h.OwnerID == userID {
		return true
	}
	for _, m := range h.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// OfflineHome is the synthetic home that receives synced resources.
func OfflineHome() Home {
	return Home{ID: OfflineHomeID, Name: OfflineHomeName, OwnerID: ""}
}
