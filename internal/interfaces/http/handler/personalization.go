package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	personalizationapp "github.com/printshop/personalizer/internal/application/personalization"
	"github.com/printshop/personalizer/internal/domain/shared"
	"github.com/printshop/personalizer/internal/interfaces/http/middleware"
)

// maxImageWidth bounds the w query of the image endpoint
const maxImageWidth = 2048

// maxLegacyFormMemory is how much of a multipart legacy post is held in memory
const maxLegacyFormMemory = 8 << 20

// imageCacheControl lets browsers reuse an image for a short while
const imageCacheControl = "private, max-age=300"

// PersonalizationHandler handles the storefront editor and cart line endpoints
type PersonalizationHandler struct {
	BaseHandler
	service *personalizationapp.Service
}

// NewPersonalizationHandler creates a new PersonalizationHandler
func NewPersonalizationHandler(service *personalizationapp.Service) *PersonalizationHandler {
	return &PersonalizationHandler{service: service}
}

// FetchMetadata godoc
// @Summary      Fetch product personalization metadata
// @Description  Return the variants of a product and the design areas of the selected variant
// @Tags         personalizer
// @Accept       json
// @Produce      json
// @Param        request body personalizationapp.MetadataRequest true "Product and optional variant"
// @Success      200 {object} dto.Response{data=personalizationapp.MetadataResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/personalizer/metadata [post]
func (h *PersonalizationHandler) FetchMetadata(c *gin.Context) {
	var req personalizationapp.MetadataRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.service.FetchProductMetadata(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SaveDraft godoc
// @Summary      Save a session draft
// @Description  Keep an in-progress design of one area in the shopper session
// @Tags         personalizer
// @Accept       json
// @Produce      json
// @Param        request body personalizationapp.SaveDraftRequest true "Draft of one design area"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/personalizer/drafts [post]
func (h *PersonalizationHandler) SaveDraft(c *gin.Context) {
	var req personalizationapp.SaveDraftRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	if err := h.service.SaveDraft(c.Request.Context(), middleware.GetSessionID(c), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"saved": true})
}

// AddToCart godoc
// @Summary      Add a personalized line to the cart
// @Description  Add a variant as a new cart line and store one personalization per design area
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body personalizationapp.AddToCartRequest true "Variant, designs and quantity"
// @Success      201 {object} dto.Response{data=personalizationapp.AddToCartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/cart/personalized-lines [post]
func (h *PersonalizationHandler) AddToCart(c *gin.Context) {
	var req personalizationapp.AddToCartRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.service.AddPersonalizedLineToCart(c.Request.Context(), middleware.GetSessionID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// PreviewLine godoc
// @Summary      Preview a cart line
// @Description  List the titles and preview URLs of the designs of a cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body personalizationapp.LineRequest true "Cart line"
// @Success      200 {object} dto.Response{data=personalizationapp.LinePreviewResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/cart/lines/preview [post]
func (h *PersonalizationHandler) PreviewLine(c *gin.Context) {
	var req personalizationapp.LineRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.service.PreviewCartLine(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// LoadLine godoc
// @Summary      Load a cart line for editing
// @Description  Return the scene of every design of a cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body personalizationapp.LineRequest true "Cart line"
// @Success      200 {object} dto.Response{data=personalizationapp.LineDesignsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/cart/lines/load [post]
func (h *PersonalizationHandler) LoadLine(c *gin.Context) {
	var req personalizationapp.LineRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.service.LoadLineForEditing(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateLine godoc
// @Summary      Replace the designs of a cart line
// @Description  Update the line quantity and replace every personalization of the line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body personalizationapp.UpdateLineRequest true "Cart line, designs and quantity"
// @Success      200 {object} dto.Response{data=personalizationapp.UpdateLineResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/cart/lines/update [post]
func (h *PersonalizationHandler) UpdateLine(c *gin.Context) {
	var req personalizationapp.UpdateLineRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.service.ReplaceLinePersonalization(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ServeImage godoc
// @Summary      Get a personalization image
// @Description  Stream the final image of a personalization, else its preview
// @Tags         personalizations
// @Produce      png
// @Param        id path string true "Personalization ID" format(uuid)
// @Param        w query int false "Thumbnail width in pixels" minimum(1) maximum(2048)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/personalizations/{id}/image [get]
func (h *PersonalizationHandler) ServeImage(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	width := 0
	if raw := c.Query("w"); raw != "" {
		width, err = strconv.Atoi(raw)
		if err != nil || width < 1 || width > maxImageWidth {
			h.HandleError(c, shared.ErrInvalidInput.WithMessage(
				"w must be an integer between 1 and "+strconv.Itoa(maxImageWidth)))
			return
		}
	}

	data, err := h.service.ServePersonalizationImage(c.Request.Context(), id, width)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Cache-Control", imageCacheControl)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, "image/png", data)
}

// LegacyCartUpdate godoc
// @Summary      Add a personalized line from a legacy form
// @Description  Translate flat per-area form fields into designs and add the variant with quantity 1
// @Tags         legacy
// @Accept       x-www-form-urlencoded,mpfd
// @Produce      json
// @Param        product_id formData string true "Variant ID"
// @Success      200 {object} dto.Response{data=personalizationapp.AddToCartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /custom/cart_update [post]
func (h *PersonalizationHandler) LegacyCartUpdate(c *gin.Context) {
	err := c.Request.ParseMultipartForm(maxLegacyFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.BadRequest(c, "Malformed form body")
		return
	}

	resp, err := h.service.AddLegacyLineToCart(c.Request.Context(), middleware.GetSessionID(c), c.Request.PostForm)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListLineRecords godoc
// @Summary      List the personalizations of a cart line
// @Description  Return the stored designs of a cart line for fulfillment
// @Tags         admin
// @Produce      json
// @Param        id path string true "Cart line ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]personalizationapp.RecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/cart-lines/{id}/personalizations [get]
func (h *PersonalizationHandler) ListLineRecords(c *gin.Context) {
	lineID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	records, err := h.service.ListLineRecords(c.Request.Context(), lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}
