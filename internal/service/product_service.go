package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/pricing"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
)

const categoriesCacheKey = "products:categories"

// ErrSKUExists is returned when creating a product whose SKU is taken.
var ErrSKUExists = errors.New("sku already exists")

// ProductService manages the catalog: CRUD, category lookups, photo storage
// and the price-list export.
type ProductService struct {
	repo        *repository.ProductRepository
	rdb         *redis.Client
	minioClient *minio.Client
	bucket      string
	minioHost   string
}

func NewProductService(repo *repository.ProductRepository, rdb *redis.Client, minioClient *minio.Client, bucket, minioHost string) *ProductService {
	return &ProductService{
		repo:        repo,
		rdb:         rdb,
		minioClient: minioClient,
		bucket:      bucket,
		minioHost:   minioHost,
	}
}

type CreateProductRequest struct {
	SKU             string                 `json:"sku" binding:"required"`
	Description     string                 `json:"description" binding:"required"`
	Category        string                 `json:"category"`
	Provider        string                 `json:"provider"`
	MeasurementUnit string                 `json:"measurement_unit"`
	PackageUnit     float64                `json:"package_unit" binding:"omitempty,gte=1"`
	Price           float64                `json:"price" binding:"gte=0"`
	Utility         float64                `json:"utility" binding:"gte=0"`
	Spec            map[string]interface{} `json:"spec"`
}

type UpdateProductRequest struct {
	Description     string                 `json:"description"`
	Category        string                 `json:"category"`
	Provider        string                 `json:"provider"`
	MeasurementUnit string                 `json:"measurement_unit"`
	PackageUnit     *float64               `json:"package_unit" binding:"omitempty,gte=1"`
	Price           *float64               `json:"price" binding:"omitempty,gte=0"`
	Utility         *float64               `json:"utility" binding:"omitempty,gte=0"`
	Spec            map[string]interface{} `json:"spec"`
}

type ProductListResult struct {
	Items      []entity.Product `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

func (s *ProductService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) (*ProductListResult, error) {
	products, total, err := s.repo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &ProductListResult{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*entity.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, userID string, req *CreateProductRequest) (*entity.Product, error) {
	if _, err := s.repo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, fmt.Errorf("sku %s: %w", req.SKU, ErrSKUExists)
	}

	packageUnit := req.PackageUnit
	if packageUnit < 1 {
		packageUnit = 1
	}

	now := time.Now()
	product := &entity.Product{
		ID:              uuid.New().String()[:32],
		SKU:             req.SKU,
		Description:     req.Description,
		Category:        req.Category,
		Provider:        req.Provider,
		MeasurementUnit: req.MeasurementUnit,
		PackageUnit:     packageUnit,
		Price:           req.Price,
		Utility:         req.Utility,
		Spec:            entity.JSONB(req.Spec),
		CreatedBy:       userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.clearCache(ctx)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id string, req *UpdateProductRequest) (*entity.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}

	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.Provider != "" {
		product.Provider = req.Provider
	}
	if req.MeasurementUnit != "" {
		product.MeasurementUnit = req.MeasurementUnit
	}
	if req.PackageUnit != nil {
		product.PackageUnit = *req.PackageUnit
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Utility != nil {
		product.Utility = *req.Utility
	}
	if req.Spec != nil {
		product.Spec = entity.JSONB(req.Spec)
	}
	product.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.clearCache(ctx)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.clearCache(ctx)
	return nil
}

// Categories returns distinct category names, cached in redis for 10 minutes.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, categoriesCacheKey).Result(); err == nil && cached != "" {
			var categories []string
			if err := json.Unmarshal([]byte(cached), &categories); err == nil {
				return categories, nil
			}
		}
	}

	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(categories); err == nil {
			s.rdb.Set(ctx, categoriesCacheKey, payload, 10*time.Minute)
		}
	}
	return categories, nil
}

// UploadPhoto stores a product photo in the object store and records its URL.
func (s *ProductService) UploadPhoto(ctx context.Context, id, filename, contentType string, reader io.Reader, size int64) (*entity.Product, error) {
	if s.minioClient == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}

	objectName := fmt.Sprintf("products/%s/%s%s", product.ID, uuid.New().String()[:8], path.Ext(filename))
	if _, err := s.minioClient.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	product.PhotoURL = fmt.Sprintf("%s/%s/%s", s.minioHost, s.bucket, objectName)
	product.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.clearCache(ctx)
	return product, nil
}

// ExportPriceList builds an xlsx with the full catalog and derived sell
// prices.
func (s *ProductService) ExportPriceList(ctx context.Context) (*excelize.File, error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Price List"
	f.SetSheetName("Sheet1", sheet)

	header := []interface{}{
		"SKU", "Description", "Category", "Provider", "Unit",
		"Package Unit", "Cost", "Utility %", "Sell Price", "Price per Package",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, p := range products {
		sellPrice := pricing.SellPrice(p.Price, p.Utility)
		row := []interface{}{
			p.SKU, p.Description, p.Category, p.Provider, p.MeasurementUnit,
			p.PackageUnit, p.Price, p.Utility, sellPrice, sellPrice * p.PackageUnit,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	return f, nil
}

func (s *ProductService) clearCache(ctx context.Context) {
	if s.rdb != nil {
		s.rdb.Del(ctx, categoriesCacheKey)
	}
}
