package routes

import (
	ws "github.com/certforge/cert_portal/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebsocketRoutes streams live bulk-job progress. The polling endpoint stays
// the authoritative contract; this just saves the issue screen from hammering
// it.
func WebsocketRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(conn *websocket.Conn) {
		client := &ws.Client{
			JobID: conn.Params("jobId"),
			Conn:  conn,
		}
		ws.Register <- client
		defer func() {
			ws.Unregister <- client
			conn.Close()
		}()

		// Drain until the client goes away; progress flows the other way.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
