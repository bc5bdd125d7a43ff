package jwt

import (
	"errors"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	tokenTypeAccess      = "access"
	tokenTypeSSE         = "sse"
	tokenTypeNegotiation = "negotiation"
)

var ErrWrongTokenType = errors.New("unexpected token type")

type Service interface {
	GenerateAccessToken(userID string, employeeID string, role employee.Role) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (userID string, err error)
	SignNegotiation(employeeID string, payload []byte, ttl time.Duration) (token string, expiresAt time.Time, err error)
	VerifyNegotiation(tokenString string) (leave.NegotiationClaims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) *JWTService {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, employeeID string, role employee.Role) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	claims := map[string]interface{}{
		"user_id":     userID,
		"employee_id": employeeID,
		"role":        string(role),
		"type":        tokenTypeAccess,
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(userID string) (token string, expiresIn int, err error) {
	expiresIn = 300
	expiresAt := time.Now().Add(5 * time.Minute).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"type":    tokenTypeSSE,
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateSSEToken validates an SSE token and returns the user ID
func (j *JWTService) ValidateSSEToken(tokenString string) (userID string, err error) {
	token, err := j.verify(tokenString, tokenTypeSSE)
	if err != nil {
		return "", err
	}
	return stringClaim(token, "user_id")
}

// SignNegotiation seals an unpaid-fallback offer so the client cannot alter
// the payload it hands back.
func (j *JWTService) SignNegotiation(employeeID string, payload []byte, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	expiresAt = time.Now().Add(ttl)

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"jti":         uuid.NewString(),
		"employee_id": employeeID,
		"req":         string(payload),
		"type":        tokenTypeNegotiation,
		"exp":         expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (j *JWTService) VerifyNegotiation(tokenString string) (leave.NegotiationClaims, error) {
	token, err := j.verify(tokenString, tokenTypeNegotiation)
	if err != nil {
		return leave.NegotiationClaims{}, err
	}
	claims := leave.NegotiationClaims{ExpiresAt: token.Expiration()}
	if claims.TokenID = token.JwtID(); claims.TokenID == "" {
		return leave.NegotiationClaims{}, jwt.ErrInvalidJWT()
	}
	if claims.EmployeeID, err = stringClaim(token, "employee_id"); err != nil {
		return leave.NegotiationClaims{}, err
	}
	req, err := stringClaim(token, "req")
	if err != nil {
		return leave.NegotiationClaims{}, err
	}
	claims.Payload = []byte(req)
	return claims, nil
}

func (j *JWTService) verify(tokenString, tokenType string) (jwt.Token, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return nil, err
	}
	if t, ok := token.Get("type"); !ok || t != tokenType {
		return nil, ErrWrongTokenType
	}
	return token, nil
}

func stringClaim(token jwt.Token, key string) (string, error) {
	v, ok := token.Get(key)
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", jwt.ErrInvalidJWT()
	}
	return s, nil
}
