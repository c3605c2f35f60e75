package protocol

// Action tags the purpose of an envelope
type Action string

// Client to server
const (
	ActionLogin       Action = "[USER LOGIN]"
	ActionRegister    Action = "[USER REGISTER]"
	ActionJoinGame    Action = "[JOIN GAME]"
	ActionCancelGame  Action = "[CANCEL GAME]"
	ActionTakeTurn    Action = "[TAKE TURN]"
	ActionGetAllStats Action = "[GET ALL PLAYER STATS]"
)

// Server to client
const (
	ActionLoginSuccess    Action = "[USER LOGIN - SUCCESS]"
	ActionLoginFail       Action = "[USER LOGIN - FAIL]"
	ActionRegisterSuccess Action = "[USER REGISTER - SUCCESS]"
	ActionRegisterFail    Action = "[USER REGISTER - FAIL]"
	ActionJoinWaiting     Action = "[JOIN GAME - WAITING]"
	ActionJoinSuccess     Action = "[JOIN GAME - SUCCESS]"
	ActionJoinFail        Action = "[JOIN GAME - FAIL]"
	ActionCancelSuccess   Action = "[CANCEL GAME - SUCCESS]"
	ActionCancelFail      Action = "[CANCEL GAME - FAIL]"
	ActionTakeTurnFail    Action = "[TAKE TURN - FAIL]"
	ActionGameTurn        Action = "[GAME - TURN]"
	ActionGameEnd         Action = "[GAME - END]"
	ActionGameAbandoned   Action = "[GAME - ABANDONED]"
	ActionStatsSuccess    Action = "[GET ALL PLAYER STATS - SUCCESS]"
	ActionStatsFail       Action = "[GET ALL PLAYER STATS - FAIL]"
	ActionError           Action = "[ERROR - ACTION]"
)

// IsPreAuth returns true for the actions accepted before a connection logs in
func (a Action) IsPreAuth() bool {
	return a == ActionLogin || a == ActionRegister
}
