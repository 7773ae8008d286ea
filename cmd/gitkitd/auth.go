package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/someoneigna/gitkit/engine"
)

// AuthConfig configures server authentication.
type AuthConfig struct {
	// Enabled requires clients to authenticate before mutating anything.
	// When false every connection runs as the server's default identity.
	Enabled bool

	// JWTSecret is the shared secret for HS256 JWT validation.
	JWTSecret string

	// Issuer is the expected "iss" claim, checked when non-empty.
	Issuer string

	// Audience is the expected "aud" claim, checked when non-empty.
	Audience string

	// NameClaim is the JWT claim carrying the user's name (default "name").
	NameClaim string

	// EmailClaim is the JWT claim carrying the user's email (default "email").
	EmailClaim string
}

// ConnectionState tracks per-connection authentication.
type ConnectionState struct {
	identity      *engine.Identity
	authenticated bool
	tokenExpiry   time.Time
}

// IsAuthenticated reports whether the connection has presented a valid token.
func (cs *ConnectionState) IsAuthenticated() bool {
	return cs.authenticated
}

// Identity returns the authenticated identity, or nil.
func (cs *ConnectionState) Identity() *engine.Identity {
	return cs.identity
}

type authResult struct {
	identity  engine.Identity
	expiresAt time.Time
	err       error
}

// validateJWT validates a token string and extracts identity claims.
func (s *Server) validateJWT(tokenString string) authResult {
	if s.authConfig == nil || !s.authConfig.Enabled {
		return authResult{err: errors.New("authentication not configured")}
	}

	nameClaim := s.authConfig.NameClaim
	if nameClaim == "" {
		nameClaim = "name"
	}
	emailClaim := s.authConfig.EmailClaim
	if emailClaim == "" {
		emailClaim = "email"
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if s.authConfig.JWTSecret == "" {
			return nil, errors.New("no JWT secret configured")
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authConfig.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))

	if err != nil {
		return authResult{err: fmt.Errorf("invalid token: %w", err)}
	}
	if !token.Valid {
		return authResult{err: errors.New("invalid token")}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authResult{err: errors.New("invalid token claims")}
	}

	if s.authConfig.Issuer != "" {
		issuer, _ := claims.GetIssuer()
		if issuer != s.authConfig.Issuer {
			return authResult{err: fmt.Errorf("invalid issuer: expected %s, got %s", s.authConfig.Issuer, issuer)}
		}
	}

	if s.authConfig.Audience != "" {
		audiences, _ := claims.GetAudience()
		found := false
		for _, aud := range audiences {
			if aud == s.authConfig.Audience {
				found = true
				break
			}
		}
		if !found {
			return authResult{err: fmt.Errorf("invalid audience: expected %s", s.authConfig.Audience)}
		}
	}

	name, _ := claims[nameClaim].(string)
	email, _ := claims[emailClaim].(string)
	if name == "" && email == "" {
		return authResult{err: fmt.Errorf("token missing identity claims (%s or %s)", nameClaim, emailClaim)}
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return authResult{
		identity:  engine.Identity{Name: name, Email: email},
		expiresAt: expiresAt,
	}
}

// handleAuth processes an AUTH request.
func (s *Server) handleAuth(req Request, state *ConnectionState) Response {
	if req.Token == "" {
		return errorResponse("auth", errors.New("missing token"))
	}

	result := s.validateJWT(req.Token)
	if result.err != nil {
		return errorResponse("auth", result.err)
	}

	state.identity = &result.identity
	state.authenticated = true
	state.tokenExpiry = result.expiresAt

	ar := AuthResponse{
		Authenticated: true,
		Identity:      fmt.Sprintf("%s <%s>", result.identity.Name, result.identity.Email),
	}
	if !result.expiresAt.IsZero() {
		ar.ExpiresIn = int(time.Until(result.expiresAt).Seconds())
	}
	return resultResponse("auth", ar)
}

// connectionIdentity picks the identity for a mutating request: the
// authenticated identity when present, the server default otherwise.
func (s *Server) connectionIdentity(state *ConnectionState) engine.Identity {
	if state.identity != nil {
		return *state.identity
	}
	return s.identity
}

// requireAuth rejects mutating requests on unauthenticated connections when
// authentication is enabled. Token expiry is checked on every request.
func (s *Server) requireAuth(state *ConnectionState) error {
	if s.authConfig == nil || !s.authConfig.Enabled {
		return nil
	}
	if !state.authenticated {
		return errors.New("authentication required")
	}
	if !state.tokenExpiry.IsZero() && time.Now().After(state.tokenExpiry) {
		state.authenticated = false
		state.identity = nil
		return errors.New("token expired")
	}
	return nil
}
