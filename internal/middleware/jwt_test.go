package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

type stubValidator map[string]error

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if err, ok := s[token]; ok {
		return nil, err
	}
	return &models.JWTClaims{UserID: "user-1", Name: "Awa"}, nil
}

func serveJWT(mw gin.HandlerFunc, header string) (*httptest.ResponseRecorder, *models.JWTClaims) {
	gin.SetMode(gin.TestMode)
	var claims *models.JWTClaims
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		claims = Claims(c)
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, claims
}

func TestJWT(t *testing.T) {
	validator := stubValidator{
		"expired": appErrors.Clone(appErrors.ErrAuthExpired, "token has expired"),
		"forged":  appErrors.Clone(appErrors.ErrUnauthorized, "invalid token"),
	}

	rec, claims := serveJWT(JWT(validator), "Bearer good")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", claims.UserID)

	rec, _ = serveJWT(JWT(validator), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serveJWT(JWT(validator), "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serveJWT(JWT(validator), "Bearer expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_EXPIRED")

	rec, _ = serveJWT(JWT(validator), "Bearer forged")
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestOptionalJWT(t *testing.T) {
	validator := stubValidator{"forged": appErrors.ErrUnauthorized}

	rec, claims := serveJWT(OptionalJWT(validator), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, claims)

	_, claims = serveJWT(OptionalJWT(validator), "Bearer forged")
	assert.Nil(t, claims)

	_, claims = serveJWT(OptionalJWT(validator), "bearer good")
	assert.NotNil(t, claims)
}

func TestActorFromClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("User-Agent", "treasuryctl")
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-9", Name: "Yao"})

	actor := Actor(c)
	assert.Equal(t, "user-9", actor.UserID)
	assert.Equal(t, "Yao", actor.UserName)
	assert.Equal(t, "treasuryctl", actor.UserAgent)
}
