package instagram

// Wire payloads for the private web API. Only the fields the application
// consumes are mapped.

type userPayload struct {
	PK         int64  `json:"pk"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	IsVerified bool   `json:"is_verified"`
	IsBusiness bool   `json:"is_business"`
}

type loginResponse struct {
	LoggedInUser *userPayload `json:"logged_in_user"`
	Status       string       `json:"status"`
	Message      string       `json:"message"`
}

type currentUserResponse struct {
	User    *userPayload `json:"user"`
	Status  string       `json:"status"`
	Message string       `json:"message"`
}

type userListResponse struct {
	Users     []userPayload `json:"users"`
	NextMaxID string        `json:"next_max_id"`
	Status    string        `json:"status"`
	Message   string        `json:"message"`
}

type userInfoResponse struct {
	User    *userPayload `json:"user"`
	Status  string       `json:"status"`
	Message string       `json:"message"`
}

type friendshipResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
