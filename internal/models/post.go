package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Author is the post author's identity, denormalized into the post document
// so feed and search reads never join back to the users table.
type Author struct {
	ID       string `json:"id"       bson:"id"`
	Username string `json:"username" bson:"username"`
	Name     string `json:"name"     bson:"name"`
}

// Post is a single blog post stored in MongoDB.
type Post struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Title     string             `json:"title"      bson:"title"`
	Content   string             `json:"content"    bson:"content"`
	ImageKey  string             `json:"image_key"  bson:"image_key"`
	Author    Author             `json:"author"     bson:"author"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// UpdatePostRequest is the JSON body for PUT /api/posts/{id}.
type UpdatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Pagination describes the position of a feed page within the whole feed.
type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalPosts      int64 `json:"totalPosts"`
	PostsPerPage    int   `json:"postsPerPage"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// PostPage is the response body for the paginated feed.
type PostPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}
