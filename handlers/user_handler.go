package handlers

import (
	"net/http"

	"formhub/middleware"
	"formhub/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService     *services.UserService
	templateService *services.TemplateService
	crmService      *services.CRMService
}

func NewUserHandler(userService *services.UserService, templateService *services.TemplateService, crmService *services.CRMService) *UserHandler {
	return &UserHandler{
		userService:     userService,
		templateService: templateService,
		crmService:      crmService,
	}
}

func (h *UserHandler) GetPreferences(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	prefs, err := h.userService.GetPreferences(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var prefs services.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdatePreferences(caller.ID, &prefs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUserTemplates(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	templates, err := h.templateService.ListByAuthor(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

// CreateAccount pushes the caller's company details into the CRM.
func (h *UserHandler) CreateAccount(c *gin.Context) {
	if _, ok := middleware.CallerFrom(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.crmService.CreateAccount(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
