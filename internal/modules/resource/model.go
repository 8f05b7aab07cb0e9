package resource

import (
	"bytes"
	"encoding/json"
	"time"
)

// Author is the account a piece of content belongs to. The API sends it
// either populated or as a bare id.
type Author struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.ID)
	}
	type plain Author
	return json.Unmarshal(data, (*plain)(a))
}

// Article is a long-form publication.
type Article struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Image     string    `json:"image,omitempty"`
	Author    Author    `json:"author"`
	Published bool      `json:"published"`
	Views     int       `json:"views,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is a short community post.
type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Author    Author    `json:"author"`
	Likes     int       `json:"likesCount,omitempty"`
	Comments  int       `json:"commentsCount,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a comment on an article, post or product.
type Comment struct {
	ID         string    `json:"_id"`
	Content    string    `json:"content"`
	Author     Author    `json:"author"`
	TargetType string    `json:"targetType,omitempty"`
	TargetID   string    `json:"targetId,omitempty"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"createdAt"`
}

// User is a registered account as listed in the admin panel.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	Active    bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports the admin role.
func (u User) IsAdmin() bool { return u.Role == "admin" }
