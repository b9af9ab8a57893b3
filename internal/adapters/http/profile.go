package http

import (
	"net/http"

	"github.com/dkeye/roomcall/internal/adapters/signal"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type profileBody struct {
	DisplayName string `json:"displayName"`
	RoomID      string `json:"roomId"`
}

func getProfile(c *gin.Context) {
	sess := sessions.Default(c)
	name, _ := sess.Get(signal.SessionKeyName).(string)
	room, _ := sess.Get(signal.SessionKeyRoom).(string)
	c.JSON(http.StatusOK, profileBody{DisplayName: name, RoomID: room})
}

// putProfile remembers the last name and room so a reconnecting websocket
// can send "resume" instead of a full join.
func putProfile(c *gin.Context) {
	var body profileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	name, err := domain.NormalizeDisplayName(body.DisplayName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_name"})
		return
	}
	room, err := domain.ParseRoomID(body.RoomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_room"})
		return
	}

	sess := sessions.Default(c)
	sess.Set(signal.SessionKeyName, name)
	sess.Set(signal.SessionKeyRoom, string(room))
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session_save"})
		return
	}
	c.JSON(http.StatusOK, profileBody{DisplayName: name, RoomID: string(room)})
}
