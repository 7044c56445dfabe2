package service

import (
	"context"
	"strings"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/config"
	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/mbeoliero/tradehub/pkg/errcode"
	"github.com/mbeoliero/tradehub/pkg/idgen"
	"github.com/mbeoliero/tradehub/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account registration, approval and login
type UserService struct {
	userStore   UserStore
	notifyStore NotificationStore
	cfg         *config.Config
}

// NewUserService creates a new UserService
func NewUserService(userStore UserStore, notifyStore NotificationStore, cfg *config.Config) *UserService {
	return &UserService{
		userStore:   userStore,
		notifyStore: notifyStore,
		cfg:         cfg,
	}
}

// RegisterRequest represents register request
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	CompanyName string `json:"company_name"`
}

// Register creates a pending account and notifies every admin that an
// approval is waiting
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*entity.UserInfo, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" || req.DisplayName == "" {
		return nil, errcode.ErrInvalidParam
	}

	existing, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		log.CtxError(ctx, "lookup user failed: error=%v", err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	if existing != nil {
		return nil, errcode.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	user := &entity.User{
		Id:           id,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		CompanyName:  req.CompanyName,
		Role:         constant.RoleMember,
		Status:       constant.UserStatusPending,
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		log.CtxError(ctx, "create user failed: error=%v", err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}

	// Same fan-out shape as message notifications: one row per admin,
	// deduped per (event, recipient), best effort
	s.notifyAdmins(ctx, user)

	log.CtxInfo(ctx, "user registered: id=%s, email=%s", user.Id, user.Email)
	return user.ToUserInfo(), nil
}

func (s *UserService) notifyAdmins(ctx context.Context, user *entity.User) {
	admins, err := s.userStore.ListByRole(ctx, constant.RoleAdmin)
	if err != nil {
		log.CtxError(ctx, "list admins failed: error=%v", err)
		return
	}

	eventId := "signup:" + user.Id
	for _, admin := range admins {
		acquired, err := s.notifyStore.AcquireFanoutKey(ctx, eventId, admin.Id)
		if err != nil || !acquired {
			if err != nil {
				log.CtxError(ctx, "acquire signup fanout key failed: user_id=%s, admin_id=%s, error=%v", user.Id, admin.Id, err)
			}
			continue
		}

		notification := &entity.Notification{
			RecipientId: admin.Id,
			Type:        constant.NotifyTypeNewUserPending,
			Payload: entity.NotifyPayload{
				UserId:     user.Id,
				SenderName: user.DisplayName,
			},
		}
		if err := s.notifyStore.Create(ctx, notification); err != nil {
			log.CtxError(ctx, "create signup notification failed: user_id=%s, admin_id=%s, error=%v", user.Id, admin.Id, err)
		}
	}
}

// Approve activates a pending account. Only admins may approve.
func (s *UserService) Approve(ctx context.Context, adminId, userId string) error {
	if adminId == "" || userId == "" {
		return errcode.ErrInvalidParam
	}

	admin, err := s.userStore.GetById(ctx, adminId)
	if err != nil {
		return errcode.ErrStoreUnavailable.Wrap(err)
	}
	if admin == nil || !admin.IsAdmin() {
		return errcode.ErrNoPermission
	}

	user, err := s.userStore.GetById(ctx, userId)
	if err != nil {
		return errcode.ErrStoreUnavailable.Wrap(err)
	}
	if user == nil {
		return errcode.ErrUserNotFound
	}

	if err := s.userStore.Update(ctx, userId, map[string]interface{}{"status": constant.UserStatusActive}); err != nil {
		log.CtxError(ctx, "approve user failed: user_id=%s, error=%v", userId, err)
		return errcode.ErrStoreUnavailable.Wrap(err)
	}

	log.CtxInfo(ctx, "user approved: user_id=%s, admin_id=%s", userId, adminId)
	return nil
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents login response
type LoginResponse struct {
	Token string           `json:"token"`
	User  *entity.UserInfo `json:"user"`
}

// Login verifies credentials and issues a token carrying the verified
// user id and display name
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, errcode.ErrInvalidParam
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		log.CtxError(ctx, "lookup user failed: error=%v", err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	if user == nil {
		return nil, errcode.ErrLoginFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errcode.ErrPasswordWrong
	}
	if !user.IsActive() {
		return nil, errcode.ErrUserPending
	}

	token, err := jwt.GenerateToken(user.Id, user.DisplayName, user.Role, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	log.CtxInfo(ctx, "user logged in: user_id=%s", user.Id)
	return &LoginResponse{Token: token, User: user.ToUserInfo()}, nil
}

// GetUserInfo gets a user's public info
func (s *UserService) GetUserInfo(ctx context.Context, userId string) (*entity.UserInfo, error) {
	if userId == "" {
		return nil, errcode.ErrInvalidParam
	}

	user, err := s.userStore.GetById(ctx, userId)
	if err != nil {
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	if user == nil {
		return nil, errcode.ErrUserNotFound
	}
	return user.ToUserInfo(), nil
}
