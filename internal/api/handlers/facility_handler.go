// server/internal/api/handlers/facility_handler.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"waste-collection-api-server/internal/database"
	"waste-collection-api-server/internal/models"
)

// FacilityRepository is the facility storage. *database.FacilityStore
// satisfies it.
type FacilityRepository interface {
	Create(ctx context.Context, f *models.Facility) error
	List(ctx context.Context) ([]models.Facility, error)
	Get(ctx context.Context, facilityID string) (*models.Facility, error)
	Update(ctx context.Context, facilityID string, ch database.FacilityChanges) error
	Delete(ctx context.Context, facilityID string) error
}

type FacilityHandler struct {
	Facilities FacilityRepository
	Logger     *slog.Logger
}

type AddressRequest struct {
	FullText  string  `json:"fullText" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

type CreateFacilityRequest struct {
	FacilityID         string             `json:"facilityId" binding:"required"`
	Name               string             `json:"name" binding:"required"`
	Type               string             `json:"type" binding:"required"`
	Address            AddressRequest     `json:"address" binding:"required"`
	AcceptedWasteTypes []models.WasteType `json:"acceptedWasteTypes"`
	Status             string             `json:"status"`
}

func (r CreateFacilityRequest) validate() error {
	for _, w := range r.AcceptedWasteTypes {
		if !w.Valid() {
			return errors.New("unknown waste type " + string(w))
		}
	}
	switch r.Status {
	case "", models.FacilityActive, models.FacilityInactive, models.FacilityFullCapacity:
		return nil
	}
	return errors.New("unknown facility status " + r.Status)
}

func (a AddressRequest) model() models.Address {
	return models.Address{FullText: a.FullText, Latitude: a.Latitude, Longitude: a.Longitude}
}

// CreateFacility registers a new facility.
func (h *FacilityHandler) CreateFacility(c *gin.Context) {
	var req CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	facility := models.Facility{
		FacilityID:         req.FacilityID,
		Name:               req.Name,
		Type:               req.Type,
		Address:            req.Address.model(),
		AcceptedWasteTypes: req.AcceptedWasteTypes,
		Status:             req.Status,
	}
	if err := h.Facilities.Create(c.Request.Context(), &facility); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Facility with this ID already exists"})
			return
		}
		h.Logger.Error("create facility failed", "facilityId", req.FacilityID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create facility"})
		return
	}
	c.JSON(http.StatusCreated, facility)
}

func (h *FacilityHandler) GetAllFacilities(c *gin.Context) {
	facilities, err := h.Facilities.List(c.Request.Context())
	if err != nil {
		h.Logger.Error("list facilities failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query facilities"})
		return
	}
	c.JSON(http.StatusOK, facilities)
}

func (h *FacilityHandler) GetFacilityByID(c *gin.Context) {
	facility, err := h.Facilities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Facility not found"})
			return
		}
		h.Logger.Error("get facility failed", "facilityId", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve facility"})
		return
	}
	c.JSON(http.StatusOK, facility)
}

func (h *FacilityHandler) UpdateFacility(c *gin.Context) {
	var req CreateFacilityRequest
	req.FacilityID = c.Param("id")
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Facilities.Update(c.Request.Context(), c.Param("id"), database.FacilityChanges{
		Name:               req.Name,
		Type:               req.Type,
		Address:            req.Address.model(),
		AcceptedWasteTypes: req.AcceptedWasteTypes,
		Status:             req.Status,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Facility not found"})
			return
		}
		h.Logger.Error("update facility failed", "facilityId", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update facility"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Facility updated successfully"})
}

func (h *FacilityHandler) DeleteFacility(c *gin.Context) {
	if err := h.Facilities.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Facility not found"})
			return
		}
		h.Logger.Error("delete facility failed", "facilityId", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete facility"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Facility deleted successfully"})
}
