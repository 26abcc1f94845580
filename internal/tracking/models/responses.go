package models

import "time"

// RecordView is the JSON shape of a record.
type RecordView struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PhoneNumber string    `json:"phone_number"`
	PhotoURL    *string   `json:"photo_url"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToView(r *Record) RecordView {
	return RecordView{
		ID:          r.ID.String(),
		UserID:      r.OwnerID.String(),
		PhoneNumber: r.PhoneNumber,
		PhotoURL:    r.PhotoURL,
		Description: r.Description,
		Location:    r.Location,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// ToViews never returns nil so empty results encode as [].
func ToViews(records []*Record) []RecordView {
	views := make([]RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, ToView(r))
	}
	return views
}
