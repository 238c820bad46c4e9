package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Discussion subtree operations. All of them mutate a loaded aggregate in
// memory; nothing is persisted until the caller writes the post back.

// AppendComment adds a comment at the tail of the sequence, snapshotting
// the actor's display name. Returns the created comment.
func (p *Post) AppendComment(actor Actor, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "cannot be empty")
	}
	now := time.Now()
	p.Comments = append(p.Comments, Comment{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		Username:  actor.Username,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Replies:   []Reply{},
	})
	return &p.Comments[len(p.Comments)-1], nil
}

// FindComment returns the comment with the given id, or nil.
func (p *Post) FindComment(commentID string) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

// EditComment replaces the comment's content and bumps its updatedAt.
func (p *Post) EditComment(commentID string, actor Actor, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "cannot be empty")
	}
	c := p.FindComment(commentID)
	if c == nil {
		return nil, ErrNotFound
	}
	if !CanMutate(actor, &c.UserID) {
		return nil, ErrForbidden
	}
	c.Content = content
	c.UpdatedAt = time.Now()
	return c, nil
}

// RemoveComment removes the comment from the sequence. Its replies live
// inside the removed element, so they go with it in the same operation.
func (p *Post) RemoveComment(commentID string, actor Actor) error {
	for i := range p.Comments {
		if p.Comments[i].ID != commentID {
			continue
		}
		if !CanMutate(actor, &p.Comments[i].UserID) {
			return ErrForbidden
		}
		p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// AppendReply adds a reply at the tail of the comment's reply sequence.
func (p *Post) AppendReply(commentID string, actor Actor, content string) (*Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "cannot be empty")
	}
	c := p.FindComment(commentID)
	if c == nil {
		return nil, ErrNotFound
	}
	now := time.Now()
	c.Replies = append(c.Replies, Reply{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		Username:  actor.Username,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return &c.Replies[len(c.Replies)-1], nil
}

// EditReply replaces a reply's content, addressed by (commentID, replyID).
func (p *Post) EditReply(commentID, replyID string, actor Actor, content string) (*Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "cannot be empty")
	}
	c := p.FindComment(commentID)
	if c == nil {
		return nil, ErrNotFound
	}
	for i := range c.Replies {
		if c.Replies[i].ID != replyID {
			continue
		}
		if !CanMutate(actor, &c.Replies[i].UserID) {
			return nil, ErrForbidden
		}
		c.Replies[i].Content = content
		c.Replies[i].UpdatedAt = time.Now()
		return &c.Replies[i], nil
	}
	return nil, ErrNotFound
}

// RemoveReply removes a reply, addressed by (commentID, replyID).
func (p *Post) RemoveReply(commentID, replyID string, actor Actor) error {
	c := p.FindComment(commentID)
	if c == nil {
		return ErrNotFound
	}
	for i := range c.Replies {
		if c.Replies[i].ID != replyID {
			continue
		}
		if !CanMutate(actor, &c.Replies[i].UserID) {
			return ErrForbidden
		}
		c.Replies = append(c.Replies[:i], c.Replies[i+1:]...)
		return nil
	}
	return ErrNotFound
}
