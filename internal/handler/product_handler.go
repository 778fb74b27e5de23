package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// ProductHandler serves the product catalog, the category list, photo uploads
// and the price-list export.
type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"keyword":  c.Query("keyword"),
		"category": c.Query("category"),
		"provider": c.Query("provider"),
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}

func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Product not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, product)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrSKUExists) {
			BadRequest(c, "SKU already exists")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Created(c, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Product not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Product not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, nil)
}

func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, categories)
}

// UploadPhoto accepts a multipart form with a "file" field and stores the
// image in object storage under the product.
func (h *ProductHandler) UploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "Missing file: "+err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "Failed to open file: "+err.Error())
		return
	}
	defer file.Close()

	product, err := h.svc.UploadPhoto(
		c.Request.Context(),
		c.Param("id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		fileHeader.Size,
	)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Product not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, product)
}

// ExportPriceList streams the full catalog as an xlsx workbook with derived
// sell prices.
func (h *ProductHandler) ExportPriceList(c *gin.Context) {
	f, err := h.svc.ExportPriceList(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("price-list-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "Failed to write workbook: "+err.Error())
	}
}
