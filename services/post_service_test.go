package services

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/repositories"
)

var (
	alice = models.Actor{ID: 1, Username: "alice"}
	bob   = models.Actor{ID: 2, Username: "bob"}
	admin = models.Actor{ID: 99, Username: "root", IsAdmin: true}
)

type mockPostStore struct {
	posts      map[uint]*models.Post
	nextID     uint
	staleSaves int
}

func newMockPostStore() *mockPostStore {
	return &mockPostStore{posts: map[uint]*models.Post{}, nextID: 1}
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Tags = append(datatypes.JSONSlice[string]{}, p.Tags...)
	cp.Comments = make(datatypes.JSONSlice[models.Comment], len(p.Comments))
	for i, c := range p.Comments {
		replies := make([]models.Reply, len(c.Replies))
		copy(replies, c.Replies)
		c.Replies = replies
		cp.Comments[i] = c
	}
	return &cp
}

func (m *mockPostStore) Insert(post *models.Post) error {
	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = clonePost(post)
	return nil
}

func (m *mockPostStore) FindByID(id uint) (*models.Post, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clonePost(post), nil
}

func (m *mockPostStore) SlugExists(slug string, excludeID uint) (bool, error) {
	for _, p := range m.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPostStore) Save(post *models.Post) error {
	stored, ok := m.posts[post.ID]
	if !ok {
		return models.ErrNotFound
	}
	if m.staleSaves > 0 {
		m.staleSaves--
		return models.ErrStaleAggregate
	}
	if stored.Version != post.Version {
		return models.ErrStaleAggregate
	}
	post.Version++
	m.posts[post.ID] = clonePost(post)
	return nil
}

func (m *mockPostStore) Delete(id uint) error {
	if _, ok := m.posts[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *mockPostStore) List(filter repositories.PostFilter, offset, limit int) ([]models.Post, int64, error) {
	var matched []models.Post
	for _, p := range m.posts {
		if filter.TitleContains != "" &&
			!strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.TitleContains)) {
			continue
		}
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		matched = append(matched, *clonePost(p))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockPostStore) IncrementViewCount(id uint) error {
	post, ok := m.posts[id]
	if !ok {
		return models.ErrNotFound
	}
	post.ViewCount++
	return nil
}

type mockCategoryStore struct {
	categories map[uint]*models.Category
	nextID     uint
}

func newMockCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{categories: map[uint]*models.Category{}, nextID: 1}
}

func (m *mockCategoryStore) Insert(category *models.Category) error {
	category.ID = m.nextID
	m.nextID++
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryStore) FindByID(id uint) (*models.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return category, nil
}

func (m *mockCategoryStore) List() ([]models.Category, error) {
	var out []models.Category
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCategoryStore) Delete(id uint) error {
	if _, ok := m.categories[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func newTestService(t *testing.T) (*PostService, *mockPostStore, uint) {
	t.Helper()
	posts := newMockPostStore()
	categories := newMockCategoryStore()
	category := &models.Category{Name: "tech"}
	require.NoError(t, categories.Insert(category))
	return NewPostService(posts, categories), posts, category.ID
}

func draft(title string, categoryID uint, author *uint) PostDraft {
	return PostDraft{
		Title:      title,
		Content:    "some content",
		Image:      "/static/uploads/cover.png",
		CategoryID: categoryID,
		AuthorID:   author,
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	svc, _, categoryID := newTestService(t)

	created, err := svc.Create(draft("Hello, World!", categoryID, &alice.ID))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "hello-world", created.Slug)
	assert.False(t, created.IsPublished)

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Hello, World!", got.Title)
	assert.Equal(t, "some content", got.Content)
	assert.Equal(t, "/static/uploads/cover.png", got.Image)
	assert.Equal(t, categoryID, got.CategoryID)
	assert.Equal(t, &alice.ID, got.AuthorID)
	assert.Equal(t, uint(1), got.ViewCount, "get records the view")
}

func TestCreateValidation(t *testing.T) {
	svc, _, categoryID := newTestService(t)

	cases := []struct {
		name  string
		draft PostDraft
	}{
		{"missing title", PostDraft{Content: "c", Image: "i", CategoryID: categoryID}},
		{"missing content", PostDraft{Title: "t", Image: "i", CategoryID: categoryID}},
		{"missing image", PostDraft{Title: "t", Content: "c", CategoryID: categoryID}},
		{"missing category", PostDraft{Title: "t", Content: "c", Image: "i"}},
		{"title too long", draft(strings.Repeat("x", 101), categoryID, nil)},
		{
			"excerpt too long",
			PostDraft{Title: "t", Content: "c", Image: "i", CategoryID: categoryID, Excerpt: strings.Repeat("y", 201)},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Create(c.draft)
			var ve *models.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestCreateUnknownCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(draft("A Post", 42, nil))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateSlugConflict(t *testing.T) {
	svc, posts, categoryID := newTestService(t)

	_, err := svc.Create(draft("Hello, World!", categoryID, &alice.ID))
	require.NoError(t, err)

	// Different punctuation, same derived slug.
	_, err = svc.Create(draft("Hello World", categoryID, &bob.ID))
	assert.ErrorIs(t, err, models.ErrSlugTaken)
	assert.Len(t, posts.posts, 1, "the colliding post must not be stored")
}

func TestUpdateRecomputesSlugOnlyOnTitleChange(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	created, err := svc.Create(draft("Original Title", categoryID, &alice.ID))
	require.NoError(t, err)

	patch := PostPatch{Title: "Original Title", Content: "new content", CategoryID: categoryID}
	updated, err := svc.Update(created.ID, alice, patch)
	require.NoError(t, err)
	assert.Equal(t, "original-title", updated.Slug)
	assert.Equal(t, "new content", updated.Content)

	patch.Title = "Renamed Title"
	updated, err = svc.Update(created.ID, alice, patch)
	require.NoError(t, err)
	assert.Equal(t, "renamed-title", updated.Slug)
}

func TestUpdateSlugCollision(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	_, err := svc.Create(draft("Taken Title", categoryID, &alice.ID))
	require.NoError(t, err)
	second, err := svc.Create(draft("Other Title", categoryID, &alice.ID))
	require.NoError(t, err)

	_, err = svc.Update(second.ID, alice, PostPatch{Title: "Taken, Title!", Content: "c", CategoryID: categoryID})
	assert.ErrorIs(t, err, models.ErrSlugTaken)
}

func TestUpdateAuthorization(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	created, err := svc.Create(draft("Owned Post", categoryID, &alice.ID))
	require.NoError(t, err)

	patch := PostPatch{Title: "Owned Post", Content: "changed", CategoryID: categoryID}

	_, err = svc.Update(created.ID, bob, patch)
	assert.ErrorIs(t, err, models.ErrForbidden)

	unchanged, _ := svc.Get(created.ID)
	assert.Equal(t, "some content", unchanged.Content, "forbidden update leaves the post unchanged")

	_, err = svc.Update(created.ID, alice, patch)
	assert.NoError(t, err)

	_, err = svc.Update(created.ID, admin, patch)
	assert.NoError(t, err)
}

func TestAuthorlessPostIsAdminOnly(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	created, err := svc.Create(draft("Orphan Post", categoryID, nil))
	require.NoError(t, err)

	patch := PostPatch{Title: "Orphan Post", Content: "changed", CategoryID: categoryID}

	_, err = svc.Update(created.ID, alice, patch)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(created.ID, alice), models.ErrForbidden)

	_, err = svc.Update(created.ID, admin, patch)
	assert.NoError(t, err)
	assert.NoError(t, svc.Delete(created.ID, admin))
}

func TestDelete(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	created, err := svc.Create(draft("Doomed Post", categoryID, &alice.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(created.ID, bob), models.ErrForbidden)
	require.NoError(t, svc.Delete(created.ID, alice))

	_, err = svc.Get(created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(created.ID, alice), models.ErrNotFound)
}

func TestListPaginationArithmetic(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	for i := 1; i <= 12; i++ {
		_, err := svc.Create(draft(fmt.Sprintf("Post Number %d", i), categoryID, &alice.ID))
		require.NoError(t, err)
	}

	page, err := svc.List(repositories.PostFilter{}, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Posts, 5)
	assert.Equal(t, "Post Number 6", page.Posts[0].Title)
	assert.Equal(t, "Post Number 10", page.Posts[4].Title)

	page, err = svc.List(repositories.PostFilter{}, 3, 5)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)

	page, err = svc.List(repositories.PostFilter{}, 4, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, int64(12), page.Total)
}

func TestListFilters(t *testing.T) {
	svc, _, techID := newTestService(t)

	_, err := svc.Create(draft("Gopher News", techID, &alice.ID))
	require.NoError(t, err)
	_, err = svc.Create(draft("Totally Unrelated", techID, &alice.ID))
	require.NoError(t, err)

	page, err := svc.List(repositories.PostFilter{TitleContains: "gOpHeR"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "Gopher News", page.Posts[0].Title)
	assert.Equal(t, int64(1), page.Total)

	page, err = svc.List(repositories.PostFilter{CategoryID: techID + 100}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 0, page.Pages)
}

func TestListLatestCommentProjection(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	withComments, err := svc.Create(draft("Busy Post", categoryID, &alice.ID))
	require.NoError(t, err)
	quiet, err := svc.Create(draft("Quiet Post", categoryID, &alice.ID))
	require.NoError(t, err)

	_, err = svc.AddComment(withComments.ID, bob, "first")
	require.NoError(t, err)
	last, err := svc.AddComment(withComments.ID, alice, "second")
	require.NoError(t, err)

	page, err := svc.List(repositories.PostFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)

	byID := map[uint]PostListItem{}
	for _, item := range page.Posts {
		byID[item.ID] = item
	}
	require.NotNil(t, byID[withComments.ID].LatestComment)
	assert.Equal(t, last.ID, byID[withComments.ID].LatestComment.ID)
	assert.Equal(t, "second", byID[withComments.ID].LatestComment.Content)
	assert.Nil(t, byID[quiet.ID].LatestComment)
}

func TestCommentLifecycleThroughService(t *testing.T) {
	svc, _, categoryID := newTestService(t)
	post, err := svc.Create(draft("Discussion Post", categoryID, &alice.ID))
	require.NoError(t, err)

	comment, err := svc.AddComment(post.ID, bob, "hello from bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", comment.Username)

	_, err = svc.EditComment(post.ID, comment.ID, alice, "hijack")
	assert.ErrorIs(t, err, models.ErrForbidden)

	edited, err := svc.EditComment(post.ID, comment.ID, bob, "hello again")
	require.NoError(t, err)
	assert.Equal(t, "hello again", edited.Content)

	reply, err := svc.AddReply(post.ID, comment.ID, alice, "welcome")
	require.NoError(t, err)

	// Removing the comment takes its replies with it.
	require.NoError(t, svc.RemoveComment(post.ID, comment.ID, admin))
	_, err = svc.EditReply(post.ID, comment.ID, reply.ID, alice, "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)

	stored, err := svc.Get(post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
}

func TestCommentOnMissingPost(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AddComment(404, bob, "into the void")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOwnershipScenario(t *testing.T) {
	svc, _, categoryID := newTestService(t)

	post, err := svc.Create(draft("Alice Writes", categoryID, &alice.ID))
	require.NoError(t, err)

	comment, err := svc.AddComment(post.ID, bob, "bob chimes in")
	require.NoError(t, err)

	patch := PostPatch{Title: "Alice Writes", Content: "edited by owner", CategoryID: categoryID}
	_, err = svc.Update(post.ID, alice, patch)
	require.NoError(t, err)

	_, err = svc.Update(post.ID, bob, patch)
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, svc.RemoveComment(post.ID, comment.ID, admin))
}

func TestStaleSaveRetries(t *testing.T) {
	svc, posts, categoryID := newTestService(t)
	post, err := svc.Create(draft("Contended Post", categoryID, &alice.ID))
	require.NoError(t, err)

	posts.staleSaves = 2
	_, err = svc.AddComment(post.ID, bob, "eventually lands")
	require.NoError(t, err)

	stored, _ := svc.Get(post.ID)
	assert.Len(t, stored.Comments, 1)
}

func TestStaleSaveGivesUp(t *testing.T) {
	svc, posts, categoryID := newTestService(t)
	post, err := svc.Create(draft("Hot Post", categoryID, &alice.ID))
	require.NoError(t, err)

	posts.staleSaves = maxSaveAttempts
	_, err = svc.AddComment(post.ID, bob, "never lands")
	assert.ErrorIs(t, err, models.ErrStaleAggregate)

	stored, _ := svc.Get(post.ID)
	assert.Empty(t, stored.Comments, "a failed save leaves the aggregate unchanged")
}
