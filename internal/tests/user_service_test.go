package services_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/service_interfaces"
)

func TestUserServiceCreateUserProvisionsBaseAccount(t *testing.T) {
	f := newFixture(testStart)
	ctx := context.Background()

	user, err := f.userSvc.CreateUser(ctx, service_interfaces.CreateUserInput{
		Username: "sepideh",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected a user id")
	}
	if user.PasswordHash == "correct horse battery" {
		t.Fatal("password must not be stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	base, err := f.accounts.GetBaseAccount(ctx, user.ID)
	if err != nil {
		t.Fatalf("expected a base account: %v", err)
	}
	if !base.Kind.IsRial() {
		t.Fatalf("base account must be rial, got %s", base.Kind)
	}
	assertDecimal(t, f.mustBalance(t, base.ID), "0")
}

func TestUserServiceCreateUserShortPassword(t *testing.T) {
	f := newFixture(testStart)

	_, err := f.userSvc.CreateUser(context.Background(), service_interfaces.CreateUserInput{
		Username: "sepideh",
		Password: "short",
	})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestUserServiceDuplicateUsername(t *testing.T) {
	f := newFixture(testStart)
	ctx := context.Background()

	input := service_interfaces.CreateUserInput{
		Username: "sepideh",
		Password: "correct horse battery",
	}
	if _, err := f.userSvc.CreateUser(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := f.userSvc.CreateUser(ctx, input); err == nil {
		t.Fatal("expected error for duplicate username")
	}
}
