package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/autjsmo/bar-ordini/utils"
)

// StaffAuth guards the operator console routes with the single shared
// secret. The plaintext never leaves boot: the hash is computed once and
// every request compares against it.
func StaffAuth(password string) gin.HandlerFunc {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic("hashing staff password: " + err.Error())
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid authorization format"))
			c.Abort()
			return
		}

		secret := strings.TrimPrefix(authHeader, "Bearer ")
		if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid staff credential"))
			c.Abort()
			return
		}

		c.Set("role", "staff")
		c.Next()
	}
}
