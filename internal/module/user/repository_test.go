package user

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/simp-lee/medibook/internal/domain"
)

// setupTestDB creates a file-backed SQLite database with the User table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, repo domain.UserRepository, dni, name string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		DNI:   dni,
		Name:  name,
		Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:  role,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create %s: %v", name, err)
	}
	return u
}

func TestCreateAndLookup(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	created := seedUser(t, repo, "12345678", "Alice", domain.RoleDoctor)
	if created.ID == 0 {
		t.Fatal("expected non-zero ID after Create")
	}

	lookups := map[string]func() (*domain.User, error){
		"GetByDNI":   func() (*domain.User, error) { return repo.GetByDNI(ctx, "12345678") },
		"GetByEmail": func() (*domain.User, error) { return repo.GetByEmail(ctx, "alice@example.com") },
	}
	for name, lookup := range lookups {
		got, err := lookup()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.ID != created.ID || got.Role != domain.RoleDoctor || got.DNI != "12345678" {
			t.Errorf("%s = %+v; want the created doctor", name, got)
		}
	}
}

func TestLookup_NotFound(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetByDNI(ctx, "nobody"); !domain.IsNotFound(err) {
		t.Errorf("GetByDNI: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !domain.IsNotFound(err) {
		t.Errorf("GetByEmail: expected ErrNotFound, got %v", err)
	}
}

func TestCreate_Duplicates(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()
	seedUser(t, repo, "111", "Alice", domain.RoleClient)

	tests := []struct {
		name string
		user domain.User
	}{
		{"duplicate dni", domain.User{DNI: "111", Name: "Bob", Email: "bob@example.com", Role: domain.RoleClient}},
		{"duplicate email", domain.User{DNI: "222", Name: "Bob", Email: "alice@example.com", Role: domain.RoleClient}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			if err := repo.Create(ctx, &u); !domain.IsAlreadyExists(err) {
				t.Errorf("expected ErrAlreadyExists, got %v", err)
			}
		})
	}
}

func TestCreate_DefaultRole(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	u := &domain.User{DNI: "1", Name: "Carol", Email: "carol@example.com"}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByDNI(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetByDNI: %v", err)
	}
	if got.Role != domain.RoleClient {
		t.Errorf("Role = %q; want column default CLIENT", got.Role)
	}
}

func TestList_Basic(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	for i := 1; i <= 5; i++ {
		seedUser(t, repo, fmt.Sprint(i), fmt.Sprintf("User%d", i), domain.RoleClient)
	}

	result, err := repo.List(context.Background(), domain.PageRequest{Page: 1, PageSize: 3, Sort: "id:asc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 5 {
		t.Errorf("Total=%d; want 5", result.Total)
	}
	if len(result.Items) != 3 {
		t.Errorf("Items count=%d; want 3", len(result.Items))
	}
	if result.TotalPages != 2 {
		t.Errorf("TotalPages=%d; want 2", result.TotalPages)
	}
}

func TestList_Empty(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	result, err := repo.List(context.Background(), domain.PageRequest{Page: 1, PageSize: 20, Sort: "id:asc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("Total=%d; want 0", result.Total)
	}
	if result.Items == nil {
		t.Error("Items should not be nil")
	}
}

func TestList_Pagination25(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	for i := 1; i <= 25; i++ {
		seedUser(t, repo, fmt.Sprintf("%08d", i), fmt.Sprintf("User%02d", i), domain.RoleClient)
	}

	result, err := repo.List(context.Background(), domain.PageRequest{Page: 2, PageSize: 10, Sort: "id:asc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 25 || result.TotalPages != 3 || result.Page != 2 {
		t.Errorf("Total=%d TotalPages=%d Page=%d; want 25, 3, 2", result.Total, result.TotalPages, result.Page)
	}
	if len(result.Items) != 10 {
		t.Fatalf("Items count=%d; want 10", len(result.Items))
	}
	if result.Items[0].Name != "User11" || result.Items[9].Name != "User20" {
		t.Errorf("page 2 = %q..%q; want User11..User20", result.Items[0].Name, result.Items[9].Name)
	}
}

func TestList_FilterAndSort(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	seedUser(t, repo, "1", "Charlie Smith", domain.RoleDoctor)
	seedUser(t, repo, "2", "Alice Jones", domain.RoleClient)
	seedUser(t, repo, "3", "Bob Smith", domain.RoleDoctor)

	tests := []struct {
		name      string
		req       domain.PageRequest
		wantNames []string
	}{
		{
			name:      "role filter sorted by name",
			req:       domain.PageRequest{Filter: map[string]string{"role": "DOCTOR"}, Sort: "name:asc"},
			wantNames: []string{"Bob Smith", "Charlie Smith"},
		},
		{
			name:      "name like",
			req:       domain.PageRequest{Filter: map[string]string{"name__like": "Smith"}, Sort: "id:desc"},
			wantNames: []string{"Bob Smith", "Charlie Smith"},
		},
		{
			name:      "exact dni",
			req:       domain.PageRequest{Filter: map[string]string{"dni": "2"}},
			wantNames: []string{"Alice Jones"},
		},
		{
			name:      "disallowed filter is ignored",
			req:       domain.PageRequest{Filter: map[string]string{"password_hash": "x"}, Sort: "name:desc"},
			wantNames: []string{"Charlie Smith", "Bob Smith", "Alice Jones"},
		},
		{
			name:      "no match",
			req:       domain.PageRequest{Filter: map[string]string{"name__like": "Zara"}},
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.Page, req.PageSize = 1, 20
			result, err := repo.List(context.Background(), req)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			got := make([]string, 0, len(result.Items))
			for _, u := range result.Items {
				got = append(got, u.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantNames, ",") {
				t.Errorf("names = %v; want %v", got, tt.wantNames)
			}
			if result.Total != int64(len(tt.wantNames)) {
				t.Errorf("Total=%d; want %d", result.Total, len(tt.wantNames))
			}
		})
	}
}
