// Package user 实现账号注册、登录与资料维护
// 注册受支付门槛约束：邮箱必须先有已支付未消费的注册订单
package user

import (
	"context"
	"regexp"
	"time"

	"consult_chat_server/internal/dao/mysql/repository"
	myredis "consult_chat_server/internal/dao/redis"
	"consult_chat_server/internal/dto/request"
	"consult_chat_server/internal/dto/respond"
	"consult_chat_server/internal/model"
	"consult_chat_server/pkg/enum/role_enum"
	"consult_chat_server/pkg/errorx"
	myjwt "consult_chat_server/pkg/util/jwt"
	"consult_chat_server/pkg/util/random"

	"go.uber.org/zap"
)

const refreshTokenKeyPrefix = "user_token_"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type userService struct {
	repos *repository.Repositories
	cache myredis.CacheService
	// refreshTTL 与 Refresh Token 有效期一致
	refreshTTL time.Duration
}

func NewUserService(repos *repository.Repositories, cache myredis.CacheService, refreshExpiryHours int) *userService {
	return &userService{
		repos:      repos,
		cache:      cache,
		refreshTTL: time.Duration(refreshExpiryHours) * time.Hour,
	}
}

// Register 注册新用户
// 注册订单在事务里被消费掉，一张已支付订单只能注册一个账号
func (s *userService) Register(req request.RegisterRequest) (*respond.RegisterRespond, error) {
	if !emailPattern.MatchString(req.Email) {
		return nil, errorx.New(errorx.CodeInvalidParam, "邮箱格式不正确")
	}
	if _, err := s.repos.User.FindByEmail(req.Email); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "该邮箱已被注册")
	} else if !errorx.IsNotFound(err) {
		zap.L().Error("注册查询用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	order, err := s.repos.PaymentOrder.FindPaidRegisterOrder(req.Email)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodePaymentRequired, "请先完成注册费支付")
		}
		zap.L().Error("注册查询支付订单失败", zap.String("email", req.Email), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	newUser := &model.UserInfo{
		Uuid:     "U" + random.GetNowAndLenRandomString(11),
		Nickname: req.Nickname,
		Email:    req.Email,
	}
	if err := newUser.SetPassword(req.Password); err != nil {
		zap.L().Error("密码加密失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.User.Create(newUser); err != nil {
			return err
		}
		return tx.PaymentOrder.Close(order.OrderId)
	})
	if err != nil {
		zap.L().Error("注册写入失败", zap.String("email", req.Email), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	zap.L().Info("新用户注册成功", zap.String("uuid", newUser.Uuid), zap.String("email", newUser.Email))
	return &respond.RegisterRespond{
		Uuid:     newUser.Uuid,
		Nickname: newUser.Nickname,
		Email:    newUser.Email,
	}, nil
}

// Login 邮箱密码登录，颁发双 Token
// Refresh Token 的 tokenID 写入缓存实现互踢：新登录使旧的 Refresh Token 失效
func (s *userService) Login(req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := s.repos.User.FindByEmail(req.Email)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		zap.L().Error("登录查询用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if !user.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码错误")
	}

	role := role_enum.User
	if user.IsAdmin == 1 {
		role = role_enum.Admin
	}
	accessToken, err := myjwt.GenerateAccessToken(user.Uuid, role)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	refreshToken, tokenID, err := myjwt.GenerateRefreshToken(user.Uuid, role)
	if err != nil {
		zap.L().Error("生成 Refresh Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if s.cache != nil {
		if err := s.cache.Set(context.Background(), refreshTokenKeyPrefix+user.Uuid, tokenID, s.refreshTTL); err != nil {
			zap.L().Warn("刷新令牌缓存写入失败", zap.String("uuid", user.Uuid), zap.Error(err))
		}
	}

	return &respond.LoginRespond{
		Uuid:         user.Uuid,
		Nickname:     user.Nickname,
		Email:        user.Email,
		Avatar:       user.Avatar,
		Role:         role,
		Credits:      user.Credits,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshToken 用 Refresh Token 换新的 Access Token
func (s *userService) RefreshToken(req request.RefreshTokenRequest) (*respond.RefreshTokenRespond, error) {
	claims, err := myjwt.ParseToken(req.RefreshToken)
	if err != nil || claims.Subject != "refresh_token" {
		return nil, errorx.New(errorx.CodeUnauthorized, "无效的 Refresh Token")
	}
	if s.cache != nil {
		stored, err := s.cache.GetOrError(context.Background(), refreshTokenKeyPrefix+claims.UserID)
		if err != nil || stored != claims.TokenID {
			return nil, errorx.New(errorx.CodeUnauthorized, "Refresh Token 已失效，请重新登录")
		}
	}
	accessToken, err := myjwt.GenerateAccessToken(claims.UserID, claims.Role)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.RefreshTokenRespond{AccessToken: accessToken}, nil
}

// GetUserInfo 查询用户资料
func (s *userService) GetUserInfo(uuid string) (*respond.GetUserInfoRespond, error) {
	user, err := s.repos.User.FindByUuid(uuid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		zap.L().Error("查询用户失败", zap.String("uuid", uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	role := role_enum.User
	if user.IsAdmin == 1 {
		role = role_enum.Admin
	}
	return &respond.GetUserInfoRespond{
		Uuid:     user.Uuid,
		Nickname: user.Nickname,
		Email:    user.Email,
		Avatar:   user.Avatar,
		Role:     role,
		Credits:  user.Credits,
	}, nil
}

// UpdateUserInfo 更新昵称/头像
func (s *userService) UpdateUserInfo(uuid string, req request.UpdateUserInfoRequest) error {
	updates := make(map[string]interface{})
	if req.Nickname != "" {
		updates["nickname"] = req.Nickname
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if len(updates) == 0 {
		return errorx.New(errorx.CodeInvalidParam, "没有需要更新的字段")
	}
	if err := s.repos.User.UpdateInfo(uuid, updates); err != nil {
		zap.L().Error("更新用户资料失败", zap.String("uuid", uuid), zap.Error(err))
		return errorx.ErrServerBusy
	}
	return nil
}
