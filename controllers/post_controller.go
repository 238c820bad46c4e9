package controllers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/repositories"
	"github.com/inkpress/inkpress/services"
	"github.com/inkpress/inkpress/utils"
)

const maxImageSize = 10 * 1024 * 1024

// PostController exposes the post aggregate and its discussion thread
// over HTTP.
type PostController struct {
	posts *services.PostService
}

func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// ListPosts returns paginated posts with author, category, and the latest
// comment resolved. Pages without a search term are cached.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"))
	search := strings.TrimSpace(ctx.Query("search"))

	filter := repositories.PostFilter{TitleContains: search}
	if id, ok := parseID(ctx.Query("category")); ok {
		filter.CategoryID = id
	}

	cacheKey := fmt.Sprintf("cache:posts:list:cat=%d:page=%d:limit=%d", filter.CategoryID, page, limit)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	result, err := p.posts.List(filter, page, limit)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	if search == "" {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: result}, time.Hour)
	}
	utils.Success(ctx, result)
}

// GetPost returns a single post with its full discussion thread.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	post, err := p.posts.Get(id)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// CreatePost creates a post from a multipart form; the image part is
// required and only its stored reference enters the aggregate.
func (p *PostController) CreatePost(ctx *gin.Context) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	image, err := saveUploadedImage(ctx, actor.ID)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, err.Error())
		return
	}
	if image == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "image is required")
		return
	}

	categoryID, _ := parseID(ctx.PostForm("category"))
	authorID := actor.ID
	draft := services.PostDraft{
		Title:       utils.Sanitize(ctx.PostForm("title")),
		Content:     utils.Sanitize(ctx.PostForm("content")),
		Image:       image,
		Excerpt:     utils.Sanitize(ctx.PostForm("excerpt")),
		CategoryID:  categoryID,
		AuthorID:    &authorID,
		Tags:        splitTags(ctx.PostForm("tags")),
		IsPublished: ctx.PostForm("is_published") == "true",
	}

	post, err := p.posts.Create(draft)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Created(ctx, gin.H{"post": post})
}

// UpdatePost applies a multipart patch; the image part is optional.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	image, err := saveUploadedImage(ctx, actor.ID)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, err.Error())
		return
	}

	categoryID, _ := parseID(ctx.PostForm("category"))
	patch := services.PostPatch{
		Title:      utils.Sanitize(ctx.PostForm("title")),
		Content:    utils.Sanitize(ctx.PostForm("content")),
		CategoryID: categoryID,
		Image:      image,
	}
	if excerpt, exists := ctx.GetPostForm("excerpt"); exists {
		clean := utils.Sanitize(excerpt)
		patch.Excerpt = &clean
	}
	if tags, exists := ctx.GetPostForm("tags"); exists {
		patch.Tags = splitTags(tags)
	}
	if published, exists := ctx.GetPostForm("is_published"); exists {
		v := published == "true"
		patch.IsPublished = &v
	}

	post, err := p.posts.Update(id, actor, patch)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost hard-deletes the aggregate, discussion included.
func (p *PostController) DeletePost(ctx *gin.Context) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	if err := p.posts.Delete(id, actor); err != nil {
		writeDomainError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

type contentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateComment appends a comment to the post's discussion thread.
func (p *PostController) CreateComment(ctx *gin.Context) {
	actor, postID, content, ok := p.bindDiscussion(ctx)
	if !ok {
		return
	}
	comment, err := p.posts.AddComment(postID, actor, content)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Created(ctx, gin.H{"comment": comment})
}

// UpdateComment edits a comment's content.
func (p *PostController) UpdateComment(ctx *gin.Context) {
	actor, postID, content, ok := p.bindDiscussion(ctx)
	if !ok {
		return
	}
	comment, err := p.posts.EditComment(postID, ctx.Param("commentId"), actor, content)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a comment together with all of its replies.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	if err := p.posts.RemoveComment(postID, ctx.Param("commentId"), actor); err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// CreateReply appends a reply one level below a comment.
func (p *PostController) CreateReply(ctx *gin.Context) {
	actor, postID, content, ok := p.bindDiscussion(ctx)
	if !ok {
		return
	}
	reply, err := p.posts.AddReply(postID, ctx.Param("commentId"), actor, content)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"reply": reply})
}

// UpdateReply edits a reply's content.
func (p *PostController) UpdateReply(ctx *gin.Context) {
	actor, postID, content, ok := p.bindDiscussion(ctx)
	if !ok {
		return
	}
	reply, err := p.posts.EditReply(postID, ctx.Param("commentId"), ctx.Param("replyId"), actor, content)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"reply": reply})
}

// DeleteReply removes a reply.
func (p *PostController) DeleteReply(ctx *gin.Context) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	if err := p.posts.RemoveReply(postID, ctx.Param("commentId"), ctx.Param("replyId"), actor); err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "reply deleted"})
}

func (p *PostController) bindDiscussion(ctx *gin.Context) (models.Actor, uint, string, bool) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return models.Actor{}, 0, "", false
	}
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return models.Actor{}, 0, "", false
	}
	var req contentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "content is required")
		return models.Actor{}, 0, "", false
	}
	return actor, postID, utils.Sanitize(req.Content), true
}

// saveUploadedImage stores the multipart "image" part on disk and returns
// its public reference. An absent part returns "" with no error so update
// handlers can treat the image as optional.
func saveUploadedImage(ctx *gin.Context, userID uint) (string, error) {
	file, header, err := ctx.Request.FormFile("image")
	if err != nil {
		return "", nil
	}
	defer file.Close()

	if header.Size > maxImageSize {
		return "", fmt.Errorf("image exceeds %dMB", maxImageSize/(1024*1024))
	}

	now := time.Now()
	baseDir := filepath.Join(config.Get().UploadDir, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to prepare upload directory")
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == "" {
		name = "image"
	}
	safeName := fmt.Sprintf("%d_%d_%s", now.UnixNano(), userID, name)
	dstPath := filepath.Join(baseDir, safeName)

	out, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to save image")
	}
	defer out.Close()

	written, err := io.Copy(out, &io.LimitedReader{R: file, N: maxImageSize + 1})
	if err != nil || written > maxImageSize {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save image")
	}

	return "/" + filepath.ToSlash(dstPath), nil
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
