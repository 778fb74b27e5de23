package service

import (
	"context"
	"errors"
	"testing"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/testutil"
)

func newProductService(t *testing.T) *ProductService {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewProductService(repos.Product, nil, nil, "", "")
}

func TestProductCreateAndGet(t *testing.T) {
	svc := newProductService(t)

	created, err := svc.Create(context.Background(), "user-001", &CreateProductRequest{
		SKU:             "FLR-100",
		Description:     "Oak laminate flooring",
		Category:        "flooring",
		MeasurementUnit: "m2",
		PackageUnit:     5,
		Price:           100,
		Utility:         20,
		Spec:            map[string]interface{}{"thickness_mm": 8},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SKU != "FLR-100" || got.PackageUnit != 5 {
		t.Errorf("product = %+v", got)
	}
	if got.Spec["thickness_mm"] == nil {
		t.Error("spec attribute lost")
	}
}

func TestProductCreateDuplicateSKU(t *testing.T) {
	svc := newProductService(t)

	req := &CreateProductRequest{SKU: "FLR-100", Description: "first", Price: 100}
	if _, err := svc.Create(context.Background(), "user-001", req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := svc.Create(context.Background(), "user-001", &CreateProductRequest{
		SKU: "FLR-100", Description: "second", Price: 200,
	})
	if !errors.Is(err, ErrSKUExists) {
		t.Errorf("error = %v, want ErrSKUExists", err)
	}
}

func TestProductCreateClampsPackageUnit(t *testing.T) {
	svc := newProductService(t)

	created, err := svc.Create(context.Background(), "user-001", &CreateProductRequest{
		SKU: "ACC-001", Description: "grout bag", Price: 10,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.PackageUnit != 1 {
		t.Errorf("PackageUnit = %v, want 1 when omitted", created.PackageUnit)
	}
}

func TestProductUpdate(t *testing.T) {
	svc := newProductService(t)

	created, err := svc.Create(context.Background(), "user-001", &CreateProductRequest{
		SKU: "FLR-100", Description: "old", Price: 100, Utility: 20,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	price := 110.0
	updated, err := svc.Update(context.Background(), created.ID, &UpdateProductRequest{
		Description: "new description",
		Price:       &price,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Description != "new description" || updated.Price != 110 {
		t.Errorf("product = %+v", updated)
	}
	if updated.Utility != 20 {
		t.Errorf("Utility = %v, untouched fields must survive", updated.Utility)
	}
}

func TestProductCategories(t *testing.T) {
	svc := newProductService(t)

	for _, p := range []struct{ sku, cat string }{
		{"FLR-100", "flooring"},
		{"FLR-200", "flooring"},
		{"WLP-100", "wallpaper"},
	} {
		if _, err := svc.Create(context.Background(), "user-001", &CreateProductRequest{
			SKU: p.sku, Description: p.sku, Category: p.cat, Price: 10,
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	categories, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("categories = %v, want 2 distinct", categories)
	}
}

func TestProductUploadPhotoWithoutStorage(t *testing.T) {
	svc := newProductService(t)
	if _, err := svc.UploadPhoto(context.Background(), "any", "a.jpg", "image/jpeg", nil, 0); err == nil {
		t.Error("expected error when object storage is not configured")
	}
}

func TestExportPriceList(t *testing.T) {
	svc := newProductService(t)

	if _, err := svc.Create(context.Background(), "user-001", &CreateProductRequest{
		SKU: "FLR-100", Description: "Oak laminate", Price: 100, Utility: 20, PackageUnit: 5,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	f, err := svc.ExportPriceList(context.Background())
	if err != nil {
		t.Fatalf("ExportPriceList failed: %v", err)
	}
	defer f.Close()

	sku, err := f.GetCellValue("Price List", "A2")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if sku != "FLR-100" {
		t.Errorf("A2 = %q, want FLR-100", sku)
	}
	sell, err := f.GetCellValue("Price List", "I2")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if sell != "120" {
		t.Errorf("I2 = %q, want 120", sell)
	}
}
