package handlers

import (
	"net/http"
	"strconv"

	"skillswap/internal/api/middleware"
	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"
	service "skillswap/internal/interfaces/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles profile, browse and search requests
type UserHandler struct {
	directory service.DirectoryService
	search    service.SearchService
}

// NewUserHandler creates a new user handler
func NewUserHandler(directory service.DirectoryService, search service.SearchService) *UserHandler {
	return &UserHandler{
		directory: directory,
		search:    search,
	}
}

// Me handles GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	id, _ := middleware.PrincipalID(c)

	u, err := h.directory.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    u,
	})
}

// UpdateSkills handles PUT /users/me/skills
func (h *UserHandler) UpdateSkills(c *gin.Context) {
	id, _ := middleware.PrincipalID(c)

	var req user.UpdateSkillsRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.directory.UpdateSkills(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Skills updated successfully",
		Data:    u,
	})
}

// SetVisibility handles PUT /users/me/visibility
func (h *UserHandler) SetVisibility(c *gin.Context) {
	id, _ := middleware.PrincipalID(c)

	var req user.VisibilityRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsPublic == nil {
		respondError(c, apperror.Validation("is_public", "is_public is required"))
		return
	}

	u, err := h.directory.SetVisibility(c.Request.Context(), id, *req.IsPublic)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Visibility updated successfully",
		Data:    u,
	})
}

// Deactivate handles DELETE /users/me
func (h *UserHandler) Deactivate(c *gin.Context) {
	id, _ := middleware.PrincipalID(c)

	if _, err := h.directory.SetActive(c.Request.Context(), id, false); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Account deactivated",
	})
}

// ListPublic handles GET /users/public. The caller is left out of the listing.
func (h *UserHandler) ListPublic(c *gin.Context) {
	caller, _ := middleware.PrincipalID(c)

	users, err := h.directory.GetPublicUsers(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    gin.H{"users": users},
	})
}

// Search handles GET /users/search?skill=&side=&partial=&limit=&offset=
func (h *UserHandler) Search(c *gin.Context) {
	caller, _ := middleware.PrincipalID(c)

	side, ok := skill.ParseSide(c.Query("side"))
	if !ok {
		respondError(c, apperror.Validation("side", "side must be offered or wanted"))
		return
	}

	query := service.SearchQuery{
		Skill:     c.Query("skill"),
		Side:      side,
		ExcludeID: caller,
	}

	var err error
	if query.Partial, err = queryBool(c, "partial"); err != nil {
		respondError(c, err)
		return
	}
	if query.Limit, err = queryInt(c, "limit"); err != nil {
		respondError(c, err)
		return
	}
	if query.Offset, err = queryInt(c, "offset"); err != nil {
		respondError(c, err)
		return
	}

	page, err := h.search.SearchBySkill(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    page,
	})
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(name, name+" must be an integer")
	}
	return v, nil
}

func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperror.Validation(name, name+" must be true or false")
	}
	return v, nil
}

// parseID reads a uuid path parameter.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, apperror.Validation(param, "invalid "+param+" format"))
		return uuid.Nil, false
	}
	return id, true
}
