package dto

// CredentialsRequest is the request body for registration and login.
// Presence is checked by the account service so both endpoints report
// missing fields the same way.
type CredentialsRequest struct {
	Username string `json:"username" binding:"omitempty,max=64,username"`
	Password string `json:"password" binding:"omitempty,max=128" sanitize:"-"`
}

// TransferRequest is the request body for a balance transfer.
type TransferRequest struct {
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient" binding:"omitempty,max=64,username"`
}

// PingResponse is the body of GET /api/ping.
type PingResponse struct {
	Message string `json:"message"`
}
