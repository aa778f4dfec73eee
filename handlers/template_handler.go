package handlers

import (
	"net/http"
	"strconv"

	"formhub/middleware"
	"formhub/services"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateService *services.TemplateService
	socialService   *services.SocialService
}

func NewTemplateHandler(templateService *services.TemplateService, socialService *services.SocialService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		socialService:   socialService,
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templateService.Create(caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, template)
}

func (h *TemplateHandler) GetTemplateByID(c *gin.Context) {
	templateID, ok := parseID(c, "templateId")
	if !ok {
		return
	}

	template, err := h.templateService.GetByID(templateID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) GetLatestTemplates(c *gin.Context) {
	templates, err := h.templateService.ListLatest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetPopularTemplates(c *gin.Context) {
	templates, err := h.templateService.ListPopular(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTags(c *gin.Context) {
	tags, err := h.templateService.ListTags()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *TemplateHandler) SearchTemplates(c *gin.Context) {
	templates, err := h.templateService.Search(c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	templateID, ok := parseID(c, "templateId")
	if !ok {
		return
	}

	var req services.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templateService.Update(templateID, caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	templateID, ok := parseID(c, "templateId")
	if !ok {
		return
	}

	if err := h.templateService.Delete(templateID, caller); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) GetComments(c *gin.Context) {
	templateID, ok := parseID(c, "templateId")
	if !ok {
		return
	}

	comments, err := h.socialService.ListComments(templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *TemplateHandler) CreateComment(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	templateID, ok := parseID(c, "templateId")
	if !ok {
		return
	}

	var req services.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.socialService.CreateComment(templateID, caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *TemplateHandler) EditComment(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	commentID, ok := parseID(c, "commentId")
	if !ok {
		return
	}

	var req services.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.socialService.EditComment(commentID, caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (h *TemplateHandler) DeleteComment(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	commentID, ok := parseID(c, "commentId")
	if !ok {
		return
	}

	if err := h.socialService.DeleteComment(commentID, caller); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) ToggleLike(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	templateID, ok := parseID(c, "templateId")
	if !ok {
		return
	}

	if err := h.socialService.ToggleLike(templateID, caller); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "like updated successfully"})
}
