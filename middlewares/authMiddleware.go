package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/utils"
)

// AuthMiddleware consumes the identity collaborator's bearer token and puts
// the stable customer id + email into the request context. Requests without
// a token pass through anonymously; customer-scoped handlers reject them.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := utils.SetCustomerIdInContext(c.Request.Context(), claim.ID)
		ctx = utils.SetCustomerEmailInContext(ctx, claim.Email)
		if claim.Role == "operator" {
			ctx = utils.SetIsOperatorInContext(ctx, true)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
