package repository

import (
	"consult_chat_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByUuid 按 UUID 查找用户
func (r *userRepository) FindByUuid(uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// FindByEmail 按邮箱查找用户
func (r *userRepository) FindByEmail(email string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 email=%s", email)
	}
	return &user, nil
}

// Create 创建用户
func (r *userRepository) Create(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}

// UpdateInfo 更新资料字段
func (r *userRepository) UpdateInfo(uuid string, updates map[string]interface{}) error {
	if err := r.db.Model(&model.UserInfo{}).Where("uuid = ?", uuid).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新用户 uuid=%s", uuid)
	}
	return nil
}

// AddCredits 原子增加消息额度，避免读改写丢失更新
func (r *userRepository) AddCredits(uuid string, n int64) error {
	res := r.db.Model(&model.UserInfo{}).Where("uuid = ?", uuid).
		UpdateColumn("credits", gorm.Expr("credits + ?", n))
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "充值额度 uuid=%s", uuid)
	}
	if res.RowsAffected == 0 {
		return wrapDBErrorf(gorm.ErrRecordNotFound, "充值额度 uuid=%s", uuid)
	}
	return nil
}
