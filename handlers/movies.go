package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) writeCatalog(c *gin.Context, body json.RawMessage, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *Handler) SearchMovies(c *gin.Context) {
	body, err := h.catalog.Search(c.Request.Context(), c.Query("query"), c.DefaultQuery("page", "1"))
	h.writeCatalog(c, body, err)
}

func (h *Handler) PopularMovies(c *gin.Context) {
	body, err := h.catalog.Popular(c.Request.Context(), c.DefaultQuery("page", "1"))
	h.writeCatalog(c, body, err)
}

func (h *Handler) TrendingMovies(c *gin.Context) {
	body, err := h.catalog.Trending(c.Request.Context())
	h.writeCatalog(c, body, err)
}

func (h *Handler) MovieDetails(c *gin.Context) {
	body, err := h.catalog.Movie(c.Request.Context(), c.Param("id"))
	h.writeCatalog(c, body, err)
}
