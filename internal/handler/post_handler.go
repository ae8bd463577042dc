package handler

import (
	"net/http"

	"occ-api/internal/middleware"
	"occ-api/internal/model"
	"occ-api/internal/service"
	"occ-api/pkg/pagination"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postService service.PostService
}

func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// RegisterRoutes exposes reads publicly; drafts are only visible to staff.
func (h *PostHandler) RegisterRoutes(router *gin.RouterGroup) {
	write := middleware.RequirePermission(model.PermContentWrite)

	posts := router.Group("/posts")
	{
		posts.GET("", middleware.OptionalAuth(), h.ListPosts)
		posts.GET("/slug/:slug", middleware.OptionalAuth(), h.GetPostBySlug)
		posts.GET("/:id", middleware.OptionalAuth(), h.GetPost)
		posts.POST("", write, h.CreatePost)
		posts.PUT("/:id", write, h.UpdatePost)
		posts.DELETE("/:id", write, h.DeletePost)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
		categories.POST("", write, h.CreateCategory)
		categories.PUT("/:id", write, h.UpdateCategory)
		categories.DELETE("/:id", write, h.DeleteCategory)
	}
}

// ListPosts handles GET /posts
// @Summary      List posts
// @Description  Anonymous and client callers only see published posts
// @Tags         posts
// @Produce      json
// @Param        category_id  query     string  false  "Category ID"
// @Param        search       query     string  false  "Title search"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20, max 100)"
// @Success      200          {object}  response.Response{data=[]model.Post}
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	filter := service.PostListFilter{
		CategoryID:    c.Query("category_id"),
		Search:        c.Query("search"),
		PublishedOnly: !actor(c).IsStaff(),
	}
	p := pagination.Parse(c)
	posts, total, err := h.postService.ListPosts(c.Request.Context(), filter, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, posts, response.NewMeta(p.Page, p.Limit, total)))
}

// GetPost handles GET /posts/:id
// @Summary      Get post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  response.Response{data=model.Post}
// @Failure      404  {object}  response.Response
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postService.GetPost(c.Request.Context(), c.Param("id"), !actor(c).IsStaff())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, post))
}

// GetPostBySlug handles GET /posts/slug/:slug
// @Summary      Get post by slug
// @Tags         posts
// @Produce      json
// @Param        slug  path      string  true  "Post slug"
// @Success      200   {object}  response.Response{data=model.Post}
// @Failure      404   {object}  response.Response
// @Router       /posts/slug/{slug} [get]
func (h *PostHandler) GetPostBySlug(c *gin.Context) {
	post, err := h.postService.GetPostBySlug(c.Request.Context(), c.Param("slug"), !actor(c).IsStaff())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, post))
}

// CreatePost handles POST /posts
// @Summary      Create post
// @Description  Content is markdown; the HTML rendering is stored alongside it
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePostRequest  true  "Post"
// @Success      201      {object}  response.Response{data=model.Post}
// @Failure      400      {object}  response.Response
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req service.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.postService.CreatePost(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, post))
}

// UpdatePost handles PUT /posts/:id
// @Summary      Update post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Post ID"
// @Param        payload  body      service.UpdatePostRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=model.Post}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req service.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.postService.UpdatePost(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, post))
}

// DeletePost handles DELETE /posts/:id
// @Summary      Delete post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.postService.DeletePost(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Post deleted"}))
}

// ListCategories handles GET /categories
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Category}
// @Router       /categories [get]
func (h *PostHandler) ListCategories(c *gin.Context) {
	categories, err := h.postService.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// GetCategory handles GET /categories/:id
// @Summary      Get category
// @Tags         categories
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response{data=model.Category}
// @Failure      404  {object}  response.Response
// @Router       /categories/{id} [get]
func (h *PostHandler) GetCategory(c *gin.Context) {
	category, err := h.postService.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// CreateCategory handles POST /categories
// @Summary      Create category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      201      {object}  response.Response{data=model.Category}
// @Failure      400      {object}  response.Response
// @Router       /categories [post]
func (h *PostHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.postService.CreateCategory(c.Request.Context(), actor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// UpdateCategory handles PUT /categories/:id
// @Summary      Update category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category"
// @Success      200      {object}  response.Response{data=model.Category}
// @Failure      404      {object}  response.Response
// @Router       /categories/{id} [put]
func (h *PostHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.postService.UpdateCategory(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory handles DELETE /categories/:id
// @Summary      Delete category
// @Description  Posts of the category become uncategorized
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /categories/{id} [delete]
func (h *PostHandler) DeleteCategory(c *gin.Context) {
	if err := h.postService.DeleteCategory(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Category deleted"}))
}
