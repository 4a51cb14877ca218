package auth

import (
	"context"
	"errors"
	"testing"
)

func TestUserRepository_CreateAndGetByID(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	hash, err := HashPassword("maya-secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &User{
		Username:     "maya",
		DisplayName:  "Maya",
		Email:        "maya@example.com",
		PasswordHash: hash,
		Role:         RoleUser,
		IsActive:     true,
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create() should generate an ID")
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Username != "maya" {
		t.Errorf("Username = %q, want %q", got.Username, "maya")
	}
	if got.Email != "maya@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "maya@example.com")
	}
	if got.Role != RoleUser {
		t.Errorf("Role = %q, want %q", got.Role, RoleUser)
	}
	if !got.IsActive {
		t.Error("IsActive should be true")
	}
	if got.PasswordHash == "" {
		t.Error("PasswordHash should be populated for credential checks")
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	admin := seedTestUser(t, db, "admin", RoleAdmin)

	got, err := repo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}

	if got.ID != admin.ID {
		t.Errorf("ID = %q, want %q", got.ID, admin.ID)
	}
	if got.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", got.Role, RoleAdmin)
	}
}

func TestUserRepository_GetByUsername_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	// Login must be able to distinguish "no such user" cheaply
	_, err := repo.GetByUsername(context.Background(), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedTestUser(t, db, "maya", RoleUser)

	hash, _ := HashPassword("other-secret")
	dup := &User{
		Username:     "maya",
		DisplayName:  "Another Maya",
		PasswordHash: hash,
		Role:         RoleUser,
		IsActive:     true,
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("error = %v, want ErrUsernameExists", err)
	}
}

func TestUserRepository_List(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("List() on a fresh store should return empty, got %d", len(users))
	}

	seedTestUser(t, db, "admin", RoleAdmin)
	seedTestUser(t, db, "maya", RoleUser)
	seedTestUser(t, db, "bob", RoleUser)

	users, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 3 {
		t.Errorf("List() returned %d users, want 3", len(users))
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	// Promote a user to admin and deactivate them, the two mutations
	// the admin endpoints perform
	user := seedTestUser(t, db, "maya", RoleUser)
	user.DisplayName = "Maya R"
	user.Role = RoleAdmin
	user.IsActive = false

	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.DisplayName != "Maya R" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, "Maya R")
	}
	if got.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", got.Role, RoleAdmin)
	}
	if got.IsActive {
		t.Error("IsActive should be false after update")
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedTestUser(t, db, "maya", RoleUser)

	newHash, err := HashPassword("rotated-secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, newHash); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	ok, err := VerifyPassword("rotated-secret", got.PasswordHash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("new password should verify after UpdatePassword")
	}
}

func TestUserRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedTestUser(t, db, "maya", RoleUser)

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.GetByID(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("after delete, GetByID error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	err := repo.Delete(context.Background(), "no-such-id")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	// SeedAdmin keys off a zero count at first boot
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	seedTestUser(t, db, "admin", RoleAdmin)
	seedTestUser(t, db, "maya", RoleUser)

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}
