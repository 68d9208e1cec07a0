package auth

import (
	"errors"
	"testing"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/models"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager(config.JWTConfig{Secret: "s3cret", Expiration: "1h"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	tok, err := m.GenerateJWT("rec-1", models.RoleRecycler, "mrf-central")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "rec-1" || claims.Role != models.RoleRecycler || claims.FacilityID != "mrf-central" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestManager_RejectsForeignAndExpiredTokens(t *testing.T) {
	a, _ := NewManager(config.JWTConfig{Secret: "one"})
	b, _ := NewManager(config.JWTConfig{Secret: "two"})
	tok, _ := a.GenerateJWT("res-1", models.RoleResident, "")
	if _, err := b.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token err = %v", err)
	}

	expired, _ := NewManager(config.JWTConfig{Secret: "one", Expiration: "-1m"})
	old, _ := expired.GenerateJWT("res-1", models.RoleResident, "")
	if _, err := a.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token err = %v", err)
	}
	if _, err := a.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage err = %v", err)
	}
}

func TestNewManager_Validation(t *testing.T) {
	if _, err := NewManager(config.JWTConfig{}); err == nil {
		t.Error("missing secret should fail")
	}
	if _, err := NewManager(config.JWTConfig{Secret: "x", Expiration: "forever"}); err == nil {
		t.Error("bad expiration should fail")
	}
}
