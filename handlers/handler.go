package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"movieflix/repository"
	"movieflix/services"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	identity  *services.IdentityService
	passcodes *services.PasscodeService
	billing   *services.BillingService
	catalog   *services.MovieCatalog
	store     repository.Manager
	log       *zap.Logger
}

type Deps struct {
	Identity  *services.IdentityService
	Passcodes *services.PasscodeService
	Billing   *services.BillingService
	Catalog   *services.MovieCatalog
	Store     repository.Manager
	Logger    *zap.Logger
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		identity:  d.Identity,
		passcodes: d.Passcodes,
		billing:   d.Billing,
		catalog:   d.Catalog,
		store:     d.Store,
		log:       log,
	}
}

// respondError writes {"error": msg} with the status of the error kind.
// Internal details are logged, never returned.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)

	msg := "Internal server error"
	var svcErr *services.Error
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		msg = svcErr.Message
	}

	switch kind {
	case services.KindInternal, services.KindUpstream:
		_ = c.Error(err)
		h.log.Error("request failed",
			zap.String("kind", kind.String()),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func userResponse(id int64, email string) gin.H {
	return gin.H{"id": id, "email": email}
}

func profileResponse(id int64, email string, createdAt time.Time) gin.H {
	return gin.H{"id": id, "email": email, "created_at": createdAt}
}
