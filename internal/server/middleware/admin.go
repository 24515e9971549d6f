package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth gates the back-office endpoints on a shared password sent in the
// X-Admin-Password header, compared against the bcrypt hash from config
// (generate one with scripts/generate_hash.go).
func AdminAuth(passwordHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		password := c.GetHeader("X-Admin-Password")
		if password == "" {
			abortForbidden(c)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
			log.WithFields(log.Fields{
				"path": c.FullPath(),
				"ip":   c.ClientIP(),
			}).Warn("admin authentication failed")
			abortForbidden(c)
			return
		}

		c.Next()
	}
}

func abortForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"message": "acesso restrito à equipe DocSafe",
	})
}
