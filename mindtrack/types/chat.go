package types

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type ActivateSessionRequest struct {
	Active *bool `json:"active"`
}

// SendMessageRequest starts one turn. Without SessionID the user's active
// session is used, or created. ClientMessageID makes retries safe.
type SendMessageRequest struct {
	Message         string `json:"message"`
	SessionID       *int   `json:"session_id,omitempty"`
	ClientMessageID string `json:"client_message_id,omitempty"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// WSChatFrame is what clients send over /chat/ws. The first frame carries only Token.
type WSChatFrame struct {
	Token string `json:"token,omitempty"`
	SendMessageRequest
}
