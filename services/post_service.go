package services

import (
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/repositories"
)

const (
	// DefaultPageSize applies when the caller sends no limit.
	DefaultPageSize = 10
	maxTitleLen     = 100
	maxExcerptLen   = 200
	// A stale save means another writer landed between load and save;
	// the whole load-modify-save is retried from a fresh aggregate.
	maxSaveAttempts = 3
)

// PostService owns every mutation and query on Post aggregates.
type PostService struct {
	posts      repositories.PostStore
	categories repositories.CategoryStore
}

func NewPostService(posts repositories.PostStore, categories repositories.CategoryStore) *PostService {
	return &PostService{posts: posts, categories: categories}
}

// PostDraft carries the fields for a new post.
type PostDraft struct {
	Title       string
	Content     string
	Image       string
	Excerpt     string
	CategoryID  uint
	AuthorID    *uint
	Tags        []string
	IsPublished bool
}

// PostPatch carries an update. Image empty keeps the stored reference;
// nil pointers keep the stored values.
type PostPatch struct {
	Title       string
	Content     string
	CategoryID  uint
	Image       string
	Excerpt     *string
	Tags        []string
	IsPublished *bool
}

// PostListItem is a listed post plus its latest-comment projection.
type PostListItem struct {
	models.Post
	LatestComment *models.Comment `json:"latestComment"`
}

// PostPage is one page of a filtered listing.
type PostPage struct {
	Posts []PostListItem `json:"posts"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
}

// Create validates the draft, derives the slug, and persists a new
// aggregate. A slug collision fails with models.ErrSlugTaken rather than
// overwriting the existing post.
func (s *PostService) Create(draft PostDraft) (*models.Post, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if err := validatePostFields(draft.Title, draft.Content, draft.Excerpt); err != nil {
		return nil, err
	}
	if draft.Image == "" {
		return nil, &models.ValidationError{Field: "image", Reason: "is required"}
	}
	if draft.CategoryID == 0 {
		return nil, &models.ValidationError{Field: "category", Reason: "is required"}
	}
	if _, err := s.categories.FindByID(draft.CategoryID); err != nil {
		return nil, err
	}

	slug := models.Slugify(draft.Title)
	taken, err := s.posts.SlugExists(slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrSlugTaken
	}

	post := &models.Post{
		Title:       draft.Title,
		Content:     draft.Content,
		Image:       draft.Image,
		Slug:        slug,
		Excerpt:     draft.Excerpt,
		AuthorID:    draft.AuthorID,
		CategoryID:  draft.CategoryID,
		Tags:        datatypes.NewJSONSlice(draft.Tags),
		IsPublished: draft.IsPublished,
		Comments:    datatypes.NewJSONSlice([]models.Comment{}),
	}
	if err := s.posts.Insert(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Get resolves the aggregate with author and category for display and
// records the view. The counter bump is best-effort and bypasses the
// versioned write.
func (s *PostService) Get(id uint) (*models.Post, error) {
	post, err := s.posts.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.posts.IncrementViewCount(id); err == nil {
		post.ViewCount++
	}
	return post, nil
}

// Update applies the patch after the ownership check, recomputing the slug
// only when the title changed.
func (s *PostService) Update(id uint, actor models.Actor, patch PostPatch) (*models.Post, error) {
	patch.Title = strings.TrimSpace(patch.Title)
	var updated *models.Post
	err := s.mutate(id, func(post *models.Post) error {
		if !models.CanMutate(actor, post.AuthorID) {
			return models.ErrForbidden
		}
		excerpt := post.Excerpt
		if patch.Excerpt != nil {
			excerpt = *patch.Excerpt
		}
		if err := validatePostFields(patch.Title, patch.Content, excerpt); err != nil {
			return err
		}
		if patch.CategoryID == 0 {
			return &models.ValidationError{Field: "category", Reason: "is required"}
		}
		if patch.CategoryID != post.CategoryID {
			if _, err := s.categories.FindByID(patch.CategoryID); err != nil {
				return err
			}
		}
		if patch.Title != post.Title {
			slug := models.Slugify(patch.Title)
			if slug != post.Slug {
				taken, err := s.posts.SlugExists(slug, post.ID)
				if err != nil {
					return err
				}
				if taken {
					return models.ErrSlugTaken
				}
				post.Slug = slug
			}
			post.Title = patch.Title
		}
		post.Content = patch.Content
		post.CategoryID = patch.CategoryID
		post.Excerpt = excerpt
		if patch.Image != "" {
			post.Image = patch.Image
		}
		if patch.Tags != nil {
			post.Tags = datatypes.NewJSONSlice(patch.Tags)
		}
		if patch.IsPublished != nil {
			post.IsPublished = *patch.IsPublished
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes the aggregate after the ownership check. Comments
// and replies live inside the row, so they go with it.
func (s *PostService) Delete(id uint, actor models.Actor) error {
	post, err := s.posts.FindByID(id)
	if err != nil {
		return err
	}
	if !models.CanMutate(actor, post.AuthorID) {
		return models.ErrForbidden
	}
	return s.posts.Delete(id)
}

// List returns one page of posts matching the filter, each with resolved
// author/category and the latest-comment projection.
func (s *PostService) List(filter repositories.PostFilter, page, limit int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	posts, total, err := s.posts.List(filter, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	items := make([]PostListItem, len(posts))
	for i := range posts {
		items[i] = PostListItem{
			Post:          posts[i],
			LatestComment: posts[i].LatestComment(),
		}
	}
	return &PostPage{
		Posts: items,
		Total: total,
		Page:  page,
		Pages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// AddComment appends a comment and writes the aggregate back.
func (s *PostService) AddComment(postID uint, actor models.Actor, content string) (*models.Comment, error) {
	var created models.Comment
	err := s.mutate(postID, func(post *models.Post) error {
		c, err := post.AppendComment(actor, content)
		if err != nil {
			return err
		}
		created = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EditComment replaces a comment's content after the ownership check.
func (s *PostService) EditComment(postID uint, commentID string, actor models.Actor, content string) (*models.Comment, error) {
	var edited models.Comment
	err := s.mutate(postID, func(post *models.Post) error {
		c, err := post.EditComment(commentID, actor, content)
		if err != nil {
			return err
		}
		edited = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &edited, nil
}

// RemoveComment removes a comment and, structurally, all of its replies.
func (s *PostService) RemoveComment(postID uint, commentID string, actor models.Actor) error {
	return s.mutate(postID, func(post *models.Post) error {
		return post.RemoveComment(commentID, actor)
	})
}

// AddReply appends a reply one level down.
func (s *PostService) AddReply(postID uint, commentID string, actor models.Actor, content string) (*models.Reply, error) {
	var created models.Reply
	err := s.mutate(postID, func(post *models.Post) error {
		r, err := post.AppendReply(commentID, actor, content)
		if err != nil {
			return err
		}
		created = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EditReply replaces a reply's content after the ownership check.
func (s *PostService) EditReply(postID uint, commentID, replyID string, actor models.Actor, content string) (*models.Reply, error) {
	var edited models.Reply
	err := s.mutate(postID, func(post *models.Post) error {
		r, err := post.EditReply(commentID, replyID, actor, content)
		if err != nil {
			return err
		}
		edited = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &edited, nil
}

// RemoveReply removes a reply addressed by (commentID, replyID).
func (s *PostService) RemoveReply(postID uint, commentID, replyID string, actor models.Actor) error {
	return s.mutate(postID, func(post *models.Post) error {
		return post.RemoveReply(commentID, replyID, actor)
	})
}

// mutate runs the load-modify-save cycle, reloading and retrying when the
// conditional save reports a stale version. A failed save never leaves a
// partial write; the in-memory mutation is simply discarded.
func (s *PostService) mutate(postID uint, fn func(*models.Post) error) error {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		post, err := s.posts.FindByID(postID)
		if err != nil {
			return err
		}
		if err := fn(post); err != nil {
			return err
		}
		err = s.posts.Save(post)
		if errors.Is(err, models.ErrStaleAggregate) {
			continue
		}
		return err
	}
	return models.ErrStaleAggregate
}

func validatePostFields(title, content, excerpt string) error {
	if title == "" {
		return &models.ValidationError{Field: "title", Reason: "is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return &models.ValidationError{Field: "title", Reason: "cannot be more than 100 characters"}
	}
	if content == "" {
		return &models.ValidationError{Field: "content", Reason: "is required"}
	}
	if utf8.RuneCountInString(excerpt) > maxExcerptLen {
		return &models.ValidationError{Field: "excerpt", Reason: "cannot be more than 200 characters"}
	}
	return nil
}
