package usecase

import (
	"context"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/converter"
	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/internal/domain/repository"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/pkg/apperror"
	"doctor-appointment-api/pkg/jwt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = apperror.New(apperror.Conflict, "Email already exists")
	ErrInvalidCredentials = apperror.New(apperror.Unauthenticated, "Invalid email or password")
	ErrInvalidToken       = apperror.New(apperror.Unauthenticated, "Invalid or expired token")
	ErrTokenRevoked       = apperror.New(apperror.Unauthenticated, "Token has been revoked")
	ErrAccountInactive    = apperror.New(apperror.Forbidden, "Account is inactive")
	ErrUserNotFound       = apperror.New(apperror.NotFound, "User not found")
	ErrRoleNotFound       = apperror.New(apperror.InvalidArgument, "Role not found")
	ErrWrongOldPassword   = apperror.New(apperror.InvalidArgument, "Old password is incorrect")
)

const userEntity = "user"

type AuthUsecase interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error
}

type authUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	auditService service.AuditService
	jwtService   *jwt.JWTService
	tokenStore   service.TokenStore
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditService service.AuditService,
	jwtService *jwt.JWTService,
	tokenStore service.TokenStore,
) AuthUsecase {
	return &authUsecase{
		db:           db,
		log:          log,
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		auditService: auditService,
		jwtService:   jwtService,
		tokenStore:   tokenStore,
	}
}

// Register creates a patient or doctor account. Doctors add their profile afterwards.
func (u *authUsecase) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	role, err := u.roleRepo.FindByName(ctx, tx, req.Role)
	if err != nil {
		u.log.Warnf("Failed to find role %s: %+v", req.Role, err)
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		FullName: req.FullName,
		RoleID:   role.ID,
	}

	if err := u.userRepo.Create(ctx, tx, user); err != nil {
		if apperror.IsUniqueViolation(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &user.ID, entity.AuditActionUserRegister, userEntity, user.ID.String(),
		map[string]interface{}{"email": user.Email, "role": role.RoleName}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		if apperror.IsUniqueViolation(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	user.Role = *role
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// Find user by email (read-only, no transaction needed)
	user, err := u.userRepo.FindByEmail(ctx, u.db, req.Email)
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrAccountInactive
	}

	return u.issueTokens(ctx, user)
}

// Logout revokes the access token of the current request and, when given, the caller's refresh token.
func (u *authUsecase) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	principal, err := authz.Require(ctx)
	if err != nil {
		return err
	}

	if err := u.tokenStore.Revoke(ctx, principal.UserID, principal.TokenID, jwt.AccessToken); err != nil {
		return err
	}

	if req == nil || req.RefreshToken == "" {
		return nil
	}
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.RefreshToken || claims.UserID != principal.UserID {
		return nil
	}
	return u.tokenStore.Revoke(ctx, claims.UserID, claims.TokenID, jwt.RefreshToken)
}

// RefreshToken rotates a refresh token: the presented one is revoked and a new pair issued.
func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	exists, err := u.tokenStore.Exists(ctx, claims.UserID, claims.TokenID, jwt.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	if err := u.tokenStore.Revoke(ctx, claims.UserID, claims.TokenID, jwt.RefreshToken); err != nil {
		return nil, err
	}

	// Role and active flag are re-read so changes apply on the next refresh.
	user, err := u.userRepo.FindByID(ctx, u.db, claims.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.Active() {
		return nil, ErrAccountInactive
	}

	return u.issueTokens(ctx, user)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context) (*dto.UserResponse, error) {
	principal, err := authz.Require(ctx)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByID(ctx, u.db, principal.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

// ChangePassword verifies the old password, stores the new hash and signs the user out everywhere.
func (u *authUsecase) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error {
	principal, err := authz.Require(ctx)
	if err != nil {
		return err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user, err := u.userRepo.FindByID(ctx, tx, principal.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return ErrWrongOldPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return err
	}

	if err := u.userRepo.UpdatePassword(ctx, tx, user.ID, string(hashedPassword)); err != nil {
		u.log.Warnf("Failed to update password for user %s: %+v", user.ID, err)
		return err
	}

	if err := u.auditService.LogUpdate(ctx, tx, &user.ID, entity.AuditActionPasswordUpdate, userEntity, user.ID.String(), nil, nil); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	if err := u.tokenStore.RevokeAll(ctx, user.ID); err != nil {
		u.log.Errorf("Password changed but token revocation failed for user %s: %+v", user.ID, err)
		return err
	}

	u.log.Infof("Password changed for user %s", user.ID)
	return nil
}

func (u *authUsecase) issueTokens(ctx context.Context, user *entity.User) (*dto.TokenResponse, error) {
	subject := jwt.Subject{UserID: user.ID, Email: user.Email, RoleID: user.RoleID}

	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(subject)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(subject)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.tokenStore.Store(ctx, user.ID, accessTokenID, jwt.AccessToken, u.jwtService.GetAccessExpiry()); err != nil {
		return nil, err
	}
	if err := u.tokenStore.Store(ctx, user.ID, refreshTokenID, jwt.RefreshToken, u.jwtService.GetRefreshExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}
