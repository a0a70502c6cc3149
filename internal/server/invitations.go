package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invitationdomain "github.com/homelet/tenantlink/internal/invitation/domain"
)

type sendInvitationRequest struct {
	PropertyID string `json:"property_id"`
	TenantID   string `json:"tenant_id"`
	Email      string `json:"email"`
	Resend     bool   `json:"resend"`
}

func (s *Server) SendInvitation(c *gin.Context) {
	userID, ok := callerUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req sendInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	propertyID, err := parseID(req.PropertyID)
	if err != nil {
		AbortWithError(c, invitationdomain.ErrPropertyRequired)
		return
	}
	tenantID, err := parseID(req.TenantID)
	if err != nil {
		AbortWithError(c, invitationdomain.ErrTenantRequired)
		return
	}

	resp, err := s.invitationSvc.Send(c.Request.Context(), userID, invitationdomain.SendRequest{
		PropertyID: propertyID,
		TenantID:   tenantID,
		Email:      req.Email,
		Resend:     req.Resend,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invitation": resp.Invitation,
		"delivered":  resp.Delivered,
	})
}

func (s *Server) VerifyInvitation(c *gin.Context) {
	summary, err := s.invitationSvc.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) AcceptInvitation(c *gin.Context) {
	userID, ok := callerUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.invitationSvc.Accept(c.Request.Context(), userID, c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeclineInvitation(c *gin.Context) {
	inv, err := s.invitationSvc.Decline(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitation": inv,
	})
}

func (s *Server) ListPropertyInvitations(c *gin.Context) {
	userID, ok := callerUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	propertyID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, invitationdomain.ErrPropertyRequired)
		return
	}

	invs, err := s.invitationSvc.ListByProperty(c.Request.Context(), userID, propertyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": invs,
	})
}

func parseID(raw string) (snowflake.ID, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, ErrInvalidRequest
	}
	return snowflake.ID(value), nil
}
