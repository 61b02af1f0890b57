package models

import "time"

// Thread is a single published Threads post.
type Thread struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id,omitempty"`
	Permalink string    `json:"permalink,omitempty"`
}
