package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestJWT_RoundTrip(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	adminID := uuid.New()

	token, err := mgr.GenerateToken(adminID, "admin@casafunko.local")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.AdminID != adminID {
		t.Errorf("admin id: got %s, want %s", claims.AdminID, adminID)
	}
	if claims.Email != "admin@casafunko.local" {
		t.Errorf("email: got %q", claims.Email)
	}
	if claims.Issuer != "casafunko" {
		t.Errorf("issuer: got %q, want casafunko", claims.Issuer)
	}
	if exp := claims.ExpiresAt.Time; time.Until(exp) > 12*time.Hour || time.Until(exp) < 11*time.Hour {
		t.Errorf("expiry out of range: %s", exp)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a").GenerateToken(uuid.New(), "admin@casafunko.local")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := NewJWTManager("secret-b").ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestJWT_Garbage(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	for _, tok := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := mgr.ValidateToken(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken(%q): got %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestJWT_Expired(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	now := time.Now().UTC()
	claims := AdminClaims{
		AdminID: uuid.New(),
		Email:   "admin@casafunko.local",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-24 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-12 * time.Hour)),
			Issuer:    "casafunko",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}

	if _, err := mgr.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestJWT_RejectsUnsignedAlgorithm(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	claims := AdminClaims{
		AdminID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if _, err := mgr.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}
