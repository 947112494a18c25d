package manager

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	mgr *GameManager
}

func NewHandler(mgr *GameManager) *Handler {
	return &Handler{mgr: mgr}
}

// GET /games
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": h.mgr.List()})
}

// GET /games/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}
	snap, ok := h.mgr.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrNoSuchGame.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DELETE /games/:id
func (h *Handler) Kill(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}
	if err := h.mgr.Kill(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /stats
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.mgr.Stats())
}
