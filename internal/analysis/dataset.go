package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"socialpulse/pkg/models"
)

// PostComments pairs a post with the comments that reference it, in dataset
// order.
type PostComments struct {
	Post     models.Post
	Comments []models.Comment
}

// LoadDataset reads an ingested dataset snapshot from a local JSON file.
func LoadDataset(path string) (*models.IngestedDataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds models.IngestedDataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &ds, nil
}

// GroupByPost groups comments under their posts, preserving post order.
// Comments whose post_url matches no post in the dataset are silently
// dropped. Posts without comments are kept with an empty slice.
func GroupByPost(ds *models.IngestedDataset) []PostComments {
	byURL := make(map[string]int, len(ds.Posts))
	groups := make([]PostComments, len(ds.Posts))
	for i, p := range ds.Posts {
		byURL[p.PostURL] = i
		groups[i] = PostComments{Post: p}
	}
	for _, c := range ds.Comments {
		i, ok := byURL[c.PostURL]
		if !ok {
			continue
		}
		groups[i].Comments = append(groups[i].Comments, c)
	}
	return groups
}

// CommentText concatenates the non-empty comment texts of a group, one per
// line, for prompt embedding.
func (g PostComments) CommentText() string {
	var b strings.Builder
	for _, c := range g.Comments {
		t := strings.TrimSpace(c.CommentText)
		if t == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String()
}

// HasText reports whether the group has at least one non-empty comment.
func (g PostComments) HasText() bool {
	for _, c := range g.Comments {
		if strings.TrimSpace(c.CommentText) != "" {
			return true
		}
	}
	return false
}

// allCommentText concatenates every grouped comment in the dataset, capped
// at maxChars to keep single-call prompts bounded. A comment that would
// push the text past the cap is dropped whole, never cut mid-comment.
func allCommentText(groups []PostComments, maxChars int) string {
	var b strings.Builder
	for _, g := range groups {
		for _, c := range g.Comments {
			t := strings.TrimSpace(c.CommentText)
			if t == "" {
				continue
			}
			line := "- " + t + "\n"
			if maxChars > 0 && b.Len()+len(line) > maxChars {
				return b.String()
			}
			b.WriteString(line)
		}
	}
	return b.String()
}
