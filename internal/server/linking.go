package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	linkingdomain "github.com/homelet/tenantlink/internal/linking/domain"
)

type propertyLinkRequest struct {
	PropertyID string `json:"property_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// VerifyPropertyLink is the tokenless self-service path: the caller
// proves who they are by matching the tenant record on file.
func (s *Server) VerifyPropertyLink(c *gin.Context) {
	userID, ok := callerUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req propertyLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	propertyID, err := parseID(req.PropertyID)
	if err != nil {
		AbortWithError(c, linkingdomain.ErrPropertyRequired)
		return
	}

	result, err := s.linkingSvc.VerifyPropertyLink(c.Request.Context(), userID, propertyID, linkingdomain.Claim{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
