package handler

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/printshop/personalizer/internal/application/catalog"
	"github.com/printshop/personalizer/internal/domain/shared"
)

// maxUploadSize bounds an uploaded catalog or design area image
const maxUploadSize = 10 << 20

// CatalogHandler handles product and design area administration
type CatalogHandler struct {
	BaseHandler
	productService    *catalogapp.ProductService
	designAreaService *catalogapp.DesignAreaService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(productService *catalogapp.ProductService, designAreaService *catalogapp.DesignAreaService) *CatalogHandler {
	return &CatalogHandler{
		productService:    productService,
		designAreaService: designAreaService,
	}
}

// CreateProduct godoc
// @Summary      Create a product template
// @Description  Create a product template with its variants
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product creation request"
// @Success      201 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetProduct godoc
// @Summary      Get product by ID
// @Description  Retrieve a product template with its variants
// @Tags         admin
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// UploadVariantImage godoc
// @Summary      Upload a variant image
// @Description  Replace the catalog image of a variant
// @Tags         admin
// @Accept       mpfd
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Param        file formData file true "Image file"
// @Success      200 {object} dto.Response{data=catalogapp.VariantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/variants/{id}/image [post]
func (h *CatalogHandler) UploadVariantImage(c *gin.Context) {
	variantID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	data, _, ok := h.readUpload(c)
	if !ok {
		return
	}

	variant, err := h.productService.UploadVariantImage(c.Request.Context(), variantID, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, variant)
}

// ListDesignAreas godoc
// @Summary      List design areas
// @Description  Return the design areas of a variant
// @Tags         admin
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]catalogapp.DesignAreaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/variants/{id}/design-areas [get]
func (h *CatalogHandler) ListDesignAreas(c *gin.Context) {
	variantID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	areas, err := h.designAreaService.ListByVariant(c.Request.Context(), variantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, areas)
}

// CreateDesignArea godoc
// @Summary      Create a design area
// @Description  Add a design area to a variant
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Param        request body catalogapp.DesignAreaRequest true "Design area"
// @Success      201 {object} dto.Response{data=catalogapp.DesignAreaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/variants/{id}/design-areas [post]
func (h *CatalogHandler) CreateDesignArea(c *gin.Context) {
	variantID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req catalogapp.DesignAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	area, err := h.designAreaService.Create(c.Request.Context(), variantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, area)
}

// UpdateDesignArea godoc
// @Summary      Update a design area
// @Description  Replace the editable fields of a design area
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Design area ID" format(uuid)
// @Param        request body catalogapp.DesignAreaRequest true "Design area"
// @Success      200 {object} dto.Response{data=catalogapp.DesignAreaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/design-areas/{id} [put]
func (h *CatalogHandler) UpdateDesignArea(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req catalogapp.DesignAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	area, err := h.designAreaService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, area)
}

// DeleteDesignArea godoc
// @Summary      Delete a design area
// @Description  Remove a design area and its background image
// @Tags         admin
// @Produce      json
// @Param        id path string true "Design area ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/design-areas/{id} [delete]
func (h *CatalogHandler) DeleteDesignArea(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.designAreaService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UploadDesignAreaImage godoc
// @Summary      Upload a design area image
// @Description  Replace the background image of a design area
// @Tags         admin
// @Accept       mpfd
// @Produce      json
// @Param        id path string true "Design area ID" format(uuid)
// @Param        file formData file true "Image file"
// @Success      200 {object} dto.Response{data=catalogapp.DesignAreaResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/admin/design-areas/{id}/image [post]
func (h *CatalogHandler) UploadDesignAreaImage(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	data, fileName, ok := h.readUpload(c)
	if !ok {
		return
	}

	area, err := h.designAreaService.UploadImage(c.Request.Context(), id, data, fileName)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, area)
}

// readUpload reads the multipart "file" field. It answers the request itself
// and returns false when the upload is missing or unreadable.
func (h *CatalogHandler) readUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.HandleError(c, shared.ErrMissingInput.WithMessage("file is required"))
		return nil, "", false
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		h.HandleError(c, shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("file exceeds %d bytes", maxUploadSize)))
		return nil, "", false
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return nil, "", false
	}
	if len(data) == 0 {
		h.HandleError(c, shared.ErrMissingInput.WithMessage("file is empty"))
		return nil, "", false
	}
	if len(data) > maxUploadSize {
		h.HandleError(c, shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("file exceeds %d bytes", maxUploadSize)))
		return nil, "", false
	}
	return data, header.Filename, true
}
