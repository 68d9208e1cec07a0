// server/internal/api/handlers/pickup_handler.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"waste-collection-api-server/internal/api/middleware"
	"waste-collection-api-server/internal/models"
	"waste-collection-api-server/internal/pickup"
)

const maxImageBytes = 10 << 20

// ImageStore uploads a pickup image. *s3.Uploader satisfies it.
type ImageStore interface {
	Upload(ctx context.Context, body io.Reader, contentType string) (models.ImageRef, error)
}

type PickupHandler struct {
	Service *pickup.Service
	Images  ImageStore
	Logger  *slog.Logger
}

// CreatePickupRequest is the JSON body when the image is already uploaded.
type CreatePickupRequest struct {
	WasteType         models.WasteType `json:"wasteType"`
	EstimatedWeightKg float64          `json:"estimatedWeightKg"`
	Description       string           `json:"description"`
	Address           string           `json:"address"`
	Latitude          *float64         `json:"latitude"`
	Longitude         *float64         `json:"longitude"`
	Image             models.ImageRef  `json:"image"`
}

type AssignDriverRequest struct {
	DriverID string `json:"driverId"`
}

type PickedUpRequest struct {
	Notes string `json:"notes"`
}

type CompletePickupRequest struct {
	ActualWeightKg   *float64 `json:"actualWeightKg"`
	PhotoURL         string   `json:"photoUrl"`
	DeliveredAddress string   `json:"deliveredAddress"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

type AssignFacilityRequest struct {
	FacilityID string `json:"facilityId"`
}

type ReceivePickupRequest struct {
	ReceivedWeightKg *float64 `json:"receivedWeightKg"`
	ProofURL         string   `json:"proofUrl"`
	Notes            string   `json:"notes"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

// CreatePickup accepts either a multipart form with an "image" file, which
// is uploaded first, or a JSON body referencing an uploaded image.
func (h *PickupHandler) CreatePickup(c *gin.Context) {
	var req pickup.CreateRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var ok bool
		if req, ok = h.createFromForm(c); !ok {
			return
		}
	} else {
		var body CreatePickupRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req = pickup.CreateRequest{
			WasteType:         body.WasteType,
			EstimatedWeightKg: body.EstimatedWeightKg,
			Description:       body.Description,
			Address:           body.Address,
			Lat:               body.Latitude,
			Lng:               body.Longitude,
			Image:             body.Image,
		}
	}

	p, err := h.Service.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PickupHandler) createFromForm(c *gin.Context) (pickup.CreateRequest, bool) {
	req := pickup.CreateRequest{
		WasteType:   models.WasteType(c.PostForm("wasteType")),
		Description: c.PostForm("description"),
		Address:     c.PostForm("address"),
	}
	var err error
	if req.EstimatedWeightKg, err = formFloat(c, "estimatedWeightKg"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "estimatedWeightKg"})
		return req, false
	}
	if req.Lat, err = optionalFormFloat(c, "latitude"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "latitude"})
		return req, false
	}
	if req.Lng, err = optionalFormFloat(c, "longitude"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "longitude"})
		return req, false
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image file is required", "field": "image"})
		return req, false
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image exceeds the 10MB limit"})
		return req, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded image"})
		return req, false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded image"})
		return req, false
	}

	req.ImageData = data
	req.ImageMIMEType = fileHeader.Header.Get("Content-Type")
	if req.ImageMIMEType == "" || req.ImageMIMEType == "application/octet-stream" {
		req.ImageMIMEType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(req.ImageMIMEType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The uploaded file is not an image", "field": "image"})
		return req, false
	}

	if h.Images != nil {
		ref, err := h.Images.Upload(c.Request.Context(), bytes.NewReader(data), req.ImageMIMEType)
		if err != nil {
			h.Logger.Error("image upload failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to store the image"})
			return req, false
		}
		req.Image = ref
	}
	return req, true
}

func (h *PickupHandler) GetPickup(c *gin.Context) {
	p, err := h.Service.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListPickups supports ?status=, ?scope=mine|open, ?facilityId=, ?limit= and ?skip=.
func (h *PickupHandler) ListPickups(c *gin.Context) {
	limit, err := queryCount(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "limit"})
		return
	}
	skip, err := queryCount(c, "skip")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "skip"})
		return
	}
	pickups, err := h.Service.List(c.Request.Context(), middleware.Actor(c), pickup.ListFilter{
		Status:     models.PickupStatus(c.Query("status")),
		Scope:      pickup.Scope(c.Query("scope")),
		FacilityID: c.Query("facilityId"),
		Limit:      limit,
		Skip:       skip,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, pickups)
}

func (h *PickupHandler) ClaimPickup(c *gin.Context) {
	h.reply(c)(h.Service.Claim(c.Request.Context(), middleware.Actor(c), c.Param("id")))
}

func (h *PickupHandler) AssignDriver(c *gin.Context) {
	var body AssignDriverRequest
	if !bindJSON(c, &body, true) {
		return
	}
	h.reply(c)(h.Service.Assign(c.Request.Context(), middleware.Actor(c), c.Param("id"),
		pickup.AssignRequest{DriverID: body.DriverID}))
}

func (h *PickupHandler) MarkPickedUp(c *gin.Context) {
	var body PickedUpRequest
	if !bindJSON(c, &body, false) {
		return
	}
	h.reply(c)(h.Service.MarkPickedUp(c.Request.Context(), middleware.Actor(c), c.Param("id"),
		pickup.PickedUpRequest{Notes: body.Notes}))
}

func (h *PickupHandler) MarkCompleted(c *gin.Context) {
	var body CompletePickupRequest
	if !bindJSON(c, &body, true) {
		return
	}
	h.reply(c)(h.Service.MarkCompleted(c.Request.Context(), middleware.Actor(c), c.Param("id"),
		pickup.CompleteRequest{
			ActualWeightKg:   body.ActualWeightKg,
			PhotoURL:         body.PhotoURL,
			DeliveredAddress: body.DeliveredAddress,
			Lat:              body.Latitude,
			Lng:              body.Longitude,
		}))
}

func (h *PickupHandler) AssignFacility(c *gin.Context) {
	var body AssignFacilityRequest
	if !bindJSON(c, &body, true) {
		return
	}
	h.reply(c)(h.Service.AssignFacility(c.Request.Context(), middleware.Actor(c), c.Param("id"),
		pickup.FacilityRequest{FacilityID: body.FacilityID}))
}

func (h *PickupHandler) ReceivePickup(c *gin.Context) {
	var body ReceivePickupRequest
	if !bindJSON(c, &body, true) {
		return
	}
	h.reply(c)(h.Service.RecyclerReceive(c.Request.Context(), middleware.Actor(c), c.Param("id"),
		pickup.ReceiveRequest{ReceivedWeightKg: body.ReceivedWeightKg, ProofURL: body.ProofURL, Notes: body.Notes}))
}

func (h *PickupHandler) RejectPickup(c *gin.Context) {
	var body ReasonRequest
	if !bindJSON(c, &body, true) {
		return
	}
	h.reply(c)(h.Service.RecyclerReject(c.Request.Context(), middleware.Actor(c), c.Param("id"),
		pickup.RejectRequest{Reason: body.Reason}))
}

func (h *PickupHandler) CancelPickup(c *gin.Context) {
	var body ReasonRequest
	if !bindJSON(c, &body, false) {
		return
	}
	h.reply(c)(h.Service.Cancel(c.Request.Context(), middleware.Actor(c), c.Param("id"),
		pickup.CancelRequest{Reason: body.Reason}))
}

// reply writes the outcome of a transition.
func (h *PickupHandler) reply(c *gin.Context) func(*models.Pickup, error) {
	return func(p *models.Pickup, err error) {
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// bindJSON decodes the body into dst. An empty body is accepted unless
// required is set.
func bindJSON(c *gin.Context, dst any, required bool) bool {
	if c.Request.ContentLength == 0 && !required {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// queryCount reads an optional non-negative integer query parameter.
func queryCount(c *gin.Context, key string) (int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

func formFloat(c *gin.Context, key string) (float64, error) {
	v, err := optionalFormFloat(c, key)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func optionalFormFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
