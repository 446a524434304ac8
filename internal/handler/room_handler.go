package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/model"
)

type createRoomRequest struct {
	Members []int64 `json:"members"`
	Name    string  `json:"name"`
}

type messageRequest struct {
	Body  string `json:"body"`
	Quote *int64 `json:"quote"`
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

// CreateRoom 创建聊天室，创建者自动成为成员
func (a *API) CreateRoom(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req createRoomRequest
	if !bindJSON(c, &req, "invalid room payload") {
		return
	}
	members := append([]int64{uid}, req.Members...)
	room, err := a.rooms.Create(c.Request.Context(), members, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"roomId": room.ID, "room": room})
}

func (a *API) GetRoom(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := idParam(c, "roomId")
	if !ok {
		return
	}
	room, err := a.rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !room.IsMember(uid) {
		respondError(c, http.StatusForbidden, "not a member of this room")
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (a *API) SendMessage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := idParam(c, "roomId")
	if !ok {
		return
	}
	var req messageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	quote := model.NoQuote
	if req.Quote != nil {
		quote = *req.Quote
	}
	message, err := a.rooms.SendMessage(c.Request.Context(), roomID, uid, req.Body, quote)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

func (a *API) ChangeNickname(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := idParam(c, "roomId")
	if !ok {
		return
	}
	var req nicknameRequest
	if !bindJSON(c, &req, "invalid nickname payload") {
		return
	}
	if err := a.rooms.ChangeNickname(c.Request.Context(), roomID, uid, req.Nickname); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (a *API) JoinRoom(c *gin.Context) {
	a.changeMembership(c, true)
}

func (a *API) LeaveRoom(c *gin.Context) {
	a.changeMembership(c, false)
}

func (a *API) changeMembership(c *gin.Context, join bool) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := idParam(c, "roomId")
	if !ok {
		return
	}

	var err error
	if join {
		err = a.rooms.Join(c.Request.Context(), roomID, uid)
	} else {
		err = a.rooms.Leave(c.Request.Context(), roomID, uid)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
