package respond

// GetUserInfoRespond 用户资料响应
type GetUserInfoRespond struct {
	Uuid     string `json:"uuid"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
	Credits  int64  `json:"credits"`
}
