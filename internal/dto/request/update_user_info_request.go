package request

// UpdateUserInfoRequest 更新用户资料请求
type UpdateUserInfoRequest struct {
	Nickname string `json:"nickname" binding:"omitempty,max=20"`
	Avatar   string `json:"avatar" binding:"omitempty,max=255"`
}
