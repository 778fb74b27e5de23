package service

import (
	"context"
	"errors"
	"testing"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/testutil"
)

func newCustomerService(t *testing.T) *CustomerService {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewCustomerService(repos.Customer)
}

func TestCustomerCreateAndGet(t *testing.T) {
	svc := newCustomerService(t)

	created, err := svc.Create(context.Background(), "user-001", &CreateCustomerRequest{
		Name:  "Casa Blanca",
		Email: "owner@casablanca.test",
		City:  "Monterrey",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != entity.CustomerStatusActive {
		t.Errorf("Status = %q, want active", created.Status)
	}
	if created.CreatedBy != "user-001" {
		t.Errorf("CreatedBy = %q", created.CreatedBy)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Casa Blanca" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestCustomerUpdatePartial(t *testing.T) {
	svc := newCustomerService(t)

	created, err := svc.Create(context.Background(), "user-001", &CreateCustomerRequest{
		Name: "Casa Blanca", Phone: "555-0001",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, &UpdateCustomerRequest{
		Phone: "555-0002",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Phone != "555-0002" {
		t.Errorf("Phone = %q", updated.Phone)
	}
	if updated.Name != "Casa Blanca" {
		t.Errorf("Name = %q, untouched fields must survive", updated.Name)
	}
}

func TestCustomerDelete(t *testing.T) {
	svc := newCustomerService(t)

	created, err := svc.Create(context.Background(), "user-001", &CreateCustomerRequest{Name: "Casa Blanca"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("deleted customer lookup = %v, want ErrNotFound", err)
	}
}

func TestCustomerListKeywordFilter(t *testing.T) {
	svc := newCustomerService(t)

	for _, name := range []string{"Casa Blanca", "Hotel Azul", "Casa Verde"} {
		if _, err := svc.Create(context.Background(), "user-001", &CreateCustomerRequest{Name: name}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	result, err := svc.List(context.Background(), 1, 20, map[string]interface{}{"keyword": "Casa"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}

	all, err := svc.List(context.Background(), 1, 2, map[string]interface{}{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if all.Total != 3 || all.TotalPages != 2 || len(all.Items) != 2 {
		t.Errorf("paging = total %d, pages %d, items %d", all.Total, all.TotalPages, len(all.Items))
	}
}
