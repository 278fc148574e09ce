package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type streamView struct {
	Peer          string    `json:"peer"`
	TotalFrames   uint8     `json:"total_frames"`
	PayloadLength uint16    `json:"payload_length"`
	Received      int       `json:"received"`
	CreatedAt     time.Time `json:"created_at"`
	TouchedAt     time.Time `json:"touched_at"`
}

type cursorView struct {
	Peer      string    `json:"peer"`
	Next      int       `json:"next"`
	Total     int       `json:"total"`
	TouchedAt time.Time `json:"touched_at"`
}

func (a *Admin) registerRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.startedAt).String(),
			"service": a.host.Config().Name,
			"streams": a.host.Store().Len(),
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router.GET("/streams", func(c *gin.Context) {
		entries := a.host.Store().Snapshot()
		streams := make([]streamView, 0, len(entries))
		for _, e := range entries {
			streams = append(streams, streamView{
				Peer:          e.Key.Peer,
				TotalFrames:   e.TotalFrames,
				PayloadLength: e.PayloadLength,
				Received:      e.Received,
				CreatedAt:     e.CreatedAt,
				TouchedAt:     e.TouchedAt,
			})
		}
		cursors := a.host.Cursors()
		outbound := make([]cursorView, 0, len(cursors))
		for _, cur := range cursors {
			outbound = append(outbound, cursorView{Peer: cur.Peer, Next: cur.Next, Total: cur.Total, TouchedAt: cur.TouchedAt})
		}
		c.JSON(http.StatusOK, gin.H{
			"inbound":  streams,
			"outbound": outbound,
		})
	})

	a.router.DELETE("/streams/:peer", a.requireToken(), func(c *gin.Context) {
		peer := c.Param("peer")
		n := a.host.Abandon(peer)
		c.JSON(http.StatusOK, gin.H{
			"peer":    peer,
			"dropped": n,
		})
	})
}
