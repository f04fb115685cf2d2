package handlers

import (
	"context"
	"time"

	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/sessions"
	"github.com/anjiri1684/studyhub/utils"
	"github.com/anjiri1684/studyhub/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// authenticateSocket accepts the access token from the ?token= query or,
// failing that, from a first {"type":"auth"} frame.
func authenticateSocket(c *websocketcontrib.Conn) (uuid.UUID, error) {
	raw := c.Query("token")
	if raw == "" {
		var msg wsAuthMessage
		if err := c.ReadJSON(&msg); err != nil || msg.Type != "auth" {
			return uuid.Nil, utils.ErrInvalidClaims
		}
		raw = msg.Token
	}

	claims, err := utils.ParseToken(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if utils.Purpose(claims) != "" {
		return uuid.Nil, utils.ErrInvalidClaims
	}
	userID, err := utils.UserIDFromClaims(claims)
	if err != nil {
		return uuid.Nil, err
	}
	if sessions.Default == nil {
		return uuid.Nil, sessions.ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	valid, err := sessions.Default.IsValid(ctx, sessions.Access, userID.String(), raw)
	if err != nil {
		return uuid.Nil, err
	}
	if !valid {
		return uuid.Nil, utils.ErrInvalidClaims
	}
	return userID, nil
}

// ServeWs keeps a push channel open for grading and certificate events.
// Clients only listen; inbound frames other than close are ignored.
func ServeWs(c *websocketcontrib.Conn) {
	userID, err := authenticateSocket(c)
	if err != nil {
		logger.Log.Warn("websocket auth failed", "error", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		_ = c.Close()
		return
	}

	client := &websocket.Client{UserID: userID, Conn: c}
	websocket.Default.Register(client)
	defer func() {
		websocket.Default.Unregister(client)
		_ = c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				logger.Log.Debug("websocket closed", "user_id", userID.String())
			} else {
				logger.Log.Debug("websocket read ended", "user_id", userID.String(), "error", err)
			}
			return
		}
	}
}
