package game

// Outbound event names. Broadcast to the room unless noted (to sender).
const (
	EventRoomLocked      = "room_locked"
	EventRoomUnlocked    = "room_unlocked"
	EventCardTaken       = "card_taken" // to sender
	EventCardSelected    = "card_selected"
	EventAllCards        = "all_cards"
	EventPlayerJoined    = "player_joined"     // to sender
	EventNeedMorePlayers = "need_more_players" // to lone remaining player
	EventLobbyCountdown  = "lobby_countdown"
	EventGameStart       = "game_start"
	EventNumberCalled    = "number_called"
	EventGraceStart      = "grace_start"
	EventGraceCountdown  = "grace_countdown"
	EventBingoWinner     = "bingo_winner"
	EventPayouts         = "payouts"
	EventGameEnd         = "game_end"
	EventInvalidBingo    = "invalid_bingo" // to sender
	EventNewGameReady    = "new_game_ready"
	EventCancelled       = "you_cancelled_game" // to sender
	EventRejected        = "rejected"           // to sender
)
