package dto

type CreateRoomRequest struct {
	Title   string `json:"title"`
	OwnerID string `json:"ownerId"`
	GameID  string `json:"gameId"`
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

type DeleteRoomResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
