package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/interfaces/http/response"
	"myfi.backend/pkg/utils"
)

const defaultSchemePageSize = 20

// ReferenceDataService serves the reconciled AMC, scheme and NAV records
type ReferenceDataService interface {
	ListSchemes(ctx context.Context, filter entities.SchemeFilter, pagination utils.PaginationParams) ([]*entities.MutualFundScheme, utils.PaginationMeta, error)
	GetScheme(ctx context.Context, id uuid.UUID) (*entities.MutualFundScheme, error)
	GetSchemeNav(ctx context.Context, schemeID uuid.UUID, from, to string) (*entities.SchemeNAV, error)
	GetAmcByCode(ctx context.Context, code string) (*entities.AMC, error)
	ListAmcs(ctx context.Context) ([]*entities.AMC, error)
}

type ReferenceHandler struct {
	reference ReferenceDataService
}

func NewReferenceHandler(reference ReferenceDataService) *ReferenceHandler {
	return &ReferenceHandler{reference: reference}
}

// ListSchemes returns a page of schemes, optionally filtered
// GET /api/v1/schemes?page&limit&amc_id&category&search
func (h *ReferenceHandler) ListSchemes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	filter := entities.SchemeFilter{
		SchemeCategory: strings.TrimSpace(c.Query("category")),
		Search:         strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("amc_id"); raw != "" {
		amcID, ok := utils.ParseID(raw)
		if !ok {
			response.Error(c, domainerrors.InvalidRequest("Invalid amc_id"))
			return
		}
		filter.AmcID = &amcID
	}

	schemes, meta, err := h.reference.ListSchemes(c.Request.Context(), filter, utils.NewPaginationParams(page, limit, defaultSchemePageSize))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, schemes, meta)
}

// GetScheme returns one scheme
// GET /api/v1/schemes/:id
func (h *ReferenceHandler) GetScheme(c *gin.Context) {
	id, ok := parseSchemeID(c)
	if !ok {
		return
	}

	scheme, err := h.reference.GetScheme(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, scheme)
}

// GetSchemeNav returns the NAV history of a scheme in ascending date order
// GET /api/v1/schemes/:id/nav?from&to
func (h *ReferenceHandler) GetSchemeNav(c *gin.Context) {
	id, ok := parseSchemeID(c)
	if !ok {
		return
	}

	nav, err := h.reference.GetSchemeNav(c.Request.Context(), id, c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}

	body := gin.H{
		"scheme_id":  nav.SchemeID,
		"points":     nav.NavData.Points(),
		"updated_at": nav.UpdatedAt,
	}
	if latest, ok := nav.NavData.Latest(); ok {
		body["latest"] = latest
	}
	response.Success(c, http.StatusOK, body)
}

// ListAmcs returns every AMC
// GET /api/v1/amcs
func (h *ReferenceHandler) ListAmcs(c *gin.Context) {
	amcs, err := h.reference.ListAmcs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": amcs})
}

// GetAmc returns an AMC by its upstream code
// GET /api/v1/amcs/:code
func (h *ReferenceHandler) GetAmc(c *gin.Context) {
	amc, err := h.reference.GetAmcByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, amc)
}

func parseSchemeID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.Error(c, domainerrors.InvalidRequest("Invalid scheme id"))
		return uuid.Nil, false
	}
	return id, true
}
