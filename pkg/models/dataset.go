// Package models contains shared data models used across the SocialPulse codebase.
package models

import "time"

// Post is a single ingested social media publication.
type Post struct {
	PostURL       string `json:"post_url"`
	Caption       string `json:"caption"`
	LikesCount    int    `json:"likesCount"`
	CommentsCount int    `json:"commentsCount"`
}

// Comment is a single ingested comment. PostURL references a Post in the
// same dataset; comments pointing at unknown posts are dropped during grouping.
type Comment struct {
	PostURL       string    `json:"post_url"`
	CommentText   string    `json:"comment_text"`
	OwnerUsername string    `json:"ownerUsername"`
	CreatedAt     time.Time `json:"created_at"`
}

// IngestedDataset is the fixed snapshot of posts and comments for one client
// that every analyzer consumes. It is immutable for the duration of a run.
type IngestedDataset struct {
	ClientID string    `json:"client_id"`
	Posts    []Post    `json:"posts"`
	Comments []Comment `json:"comments"`
}
