package handlers

import (
	"net/http"
	"strconv"

	"formhub/middleware"
	"formhub/services"

	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	formService *services.FormService
	hub         *services.ResultsHub
	metrics     *middleware.Metrics
}

func NewFormHandler(formService *services.FormService, hub *services.ResultsHub, metrics *middleware.Metrics) *FormHandler {
	return &FormHandler{formService: formService, hub: hub, metrics: metrics}
}

func (h *FormHandler) CreateForm(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form, err := h.formService.Create(caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastSubmission(form)
	}
	if h.metrics != nil {
		h.metrics.FormsSubmitted.WithLabelValues(strconv.FormatUint(uint64(form.TemplateID), 10)).Inc()
	}

	c.JSON(http.StatusCreated, gin.H{"message": "form created", "form": form})
}

func (h *FormHandler) GetFormByID(c *gin.Context) {
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}

	form, err := h.formService.GetByID(formID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

func (h *FormHandler) GetFormsByTemplate(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	templateID, ok := parseID(c, "templateId")
	if !ok {
		return
	}

	forms, err := h.formService.ListByTemplate(templateID, caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, forms)
}

func (h *FormHandler) GetUserForms(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summaries, err := h.formService.ListByUser(caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *FormHandler) UpdateForm(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form, err := h.formService.Update(formID, caller, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "form updated successfully", "form": form})
}

func (h *FormHandler) DeleteForm(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.formService.Delete(formID, caller); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "form deleted"})
}
