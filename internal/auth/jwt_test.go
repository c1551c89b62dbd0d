package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/barriofunde/donaciones/internal/domain"
)

const testSecret = "clave-de-pruebas-suficientemente-larga-123456"

func testUsuario() *domain.Usuario {
	return &domain.Usuario{
		ID:     uuid.New(),
		Nombre: "Ana Lopez",
		Email:  "ana@x.com",
		Rol:    domain.RolDonante,
		Activo: true,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	mgr := NewJWTManager(testSecret, 24*time.Hour)
	usuario := testUsuario()

	token, expiresAt, err := mgr.Generate(usuario)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected signed token")
	}
	if remaining := time.Until(expiresAt); remaining < 23*time.Hour {
		t.Fatalf("expected ~24h expiry, got %v", remaining)
	}

	if !mgr.Validate(token) {
		t.Fatal("expected valid token")
	}

	claims, err := mgr.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Email != usuario.Email || claims.Nombre != usuario.Nombre || claims.Rol != string(usuario.Rol) {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	email, err := mgr.ExtractEmail(token)
	if err != nil || email != "ana@x.com" {
		t.Fatalf("ExtractEmail = %q, %v", email, err)
	}

	id, err := mgr.ExtractUserID(token)
	if err != nil || id != usuario.ID {
		t.Fatalf("ExtractUserID = %v, %v", id, err)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	mgr := NewJWTManager(testSecret, -time.Minute)
	token, _, err := mgr.Generate(testUsuario())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mgr.Validate(token) {
		t.Fatal("expected expired token to be invalid")
	}
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	token, _, err := NewJWTManager(testSecret, time.Hour).Generate(testUsuario())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	otro := NewJWTManager("otra-clave-distinta-igual-de-larga-7890123", time.Hour)
	if otro.Validate(token) {
		t.Fatal("expected token signed with another secret to be invalid")
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("password1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "password1" {
		t.Fatal("hash must not equal the raw password")
	}

	ok, err := Verify("password1", hash)
	if err != nil || !ok {
		t.Fatalf("Verify = %v, %v", ok, err)
	}
	ok, err = Verify("otra", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got %v, %v", ok, err)
	}
}
