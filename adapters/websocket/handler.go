package websocket

import (
	"github.com/labstack/echo/v4"
)

// Handler upgrades "/ws" requests. It expects the JWT middleware to have set
// user_id, device_id and device_version on c.
func (s *Server) Handler(c echo.Context) error {
	userID, _ := c.Get("user_id").(int)
	deviceID, _ := c.Get("device_id").(string)
	deviceVersion, _ := c.Get("device_version").(string)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, userID, deviceID, deviceVersion, s.handleMessage)
	s.hub.Register(client)

	client.Run()

	defer s.hub.Unregister(client)

	// Wait for the client context to be done (connection closed)
	<-client.Context().Done()

	return nil
}
