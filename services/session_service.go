package services

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
)

// TokenIssuer signs and verifies credentials. utils.JWTManager implements it.
type TokenIssuer interface {
	GenerateAccessToken(userID uint, role string, ttl time.Duration) (string, error)
	GenerateRefreshToken(userID uint, role string, expiresAt time.Time) (string, error)
	ParseRefreshToken(token string) (*utils.CustomClaims, error)
}

type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type GuestLoginInput struct {
	Phone       string
	TableNumber int
	TableToken  string
}

type GuestLoginResult struct {
	Guest   *models.Guest        `json:"guest"`
	Session *models.GuestSession `json:"guest_session"`
	Credentials
}

// SessionService binds guests to tables.
type SessionService struct {
	store      *repository.Store
	tokens     TokenIssuer
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewSessionService(store *repository.Store, tokens TokenIssuer, accessTTL, refreshTTL time.Duration) *SessionService {
	return &SessionService{
		store:      store,
		tokens:     tokens,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Login opens a session for the guest on the table and reserves it.
func (s *SessionService) Login(ctx context.Context, in GuestLoginInput) (*GuestLoginResult, error) {
	table, err := s.store.Tables.FindByNumber(ctx, in.TableNumber)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Table %d does not exist", in.TableNumber)
		}
		return nil, utils.NewInternalError("failed to load table", err)
	}
	if subtle.ConstantTimeCompare([]byte(table.Token), []byte(in.TableToken)) != 1 {
		return nil, utils.NewAuthError("Invalid token for table %d", in.TableNumber)
	}
	if err := checkTableOpenForLogin(table); err != nil {
		return nil, err
	}

	result := &GuestLoginResult{}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		reserved, err := tx.Tables.ReserveIfAvailable(ctx, table.ID)
		if err != nil {
			return utils.NewInternalError("failed to reserve table", err)
		}
		if reserved == 0 {
			// status changed after the read above
			return utils.NewBusinessError("Table %d is already occupied, please contact staff for help", table.Number)
		}

		guest, err := s.findOrCreateGuest(ctx, tx, in.Phone)
		if err != nil {
			return err
		}
		if err := s.closeOpenSessions(ctx, tx, guest.ID); err != nil {
			return err
		}

		refreshExp := s.now().Add(s.refreshTTL)
		creds, err := s.issue(guest.ID, refreshExp)
		if err != nil {
			return err
		}

		session := &models.GuestSession{
			GuestID:         guest.ID,
			TableID:         table.ID,
			RefreshToken:    creds.RefreshToken,
			RefreshTokenExp: refreshExp,
		}
		if err := tx.Sessions.Create(ctx, session); err != nil {
			return utils.NewInternalError("failed to create guest session", err)
		}

		result.Guest = guest
		result.Session = session
		result.Credentials = *creds
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Guest %s logged in at table %d (session=%d)", result.Guest.Phone, table.Number, result.Session.ID)
	return result, nil
}

// Logout closes the session holding refreshToken and frees its table.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) (*models.GuestSession, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil || claims.Role != models.RoleGuest {
		return nil, utils.NewAuthError("Invalid refresh token")
	}

	var closed *models.GuestSession
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		session, err := tx.Sessions.FindOpen(ctx, claims.UserID, refreshToken)
		if err != nil {
			if repository.IsNotFound(err) {
				return utils.NewAuthError("Session does not exist")
			}
			return utils.NewInternalError("failed to load session", err)
		}
		ok, err := s.closeSession(ctx, tx, session)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NewAuthError("Session does not exist")
		}
		closed = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Guest session %d closed, table %d freed", closed.ID, closed.TableID)
	return closed, nil
}

// Refresh rotates both credentials; the new refresh token keeps the old expiry.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil || claims.Role != models.RoleGuest {
		return nil, utils.NewAuthError("Invalid refresh token")
	}

	session, err := s.store.Sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Refresh token does not exist")
		}
		return nil, utils.NewInternalError("failed to load session", err)
	}
	if session.GuestID != claims.UserID {
		return nil, utils.NewAuthError("Invalid refresh token")
	}

	exp := claims.ExpiresAt.Time
	creds, err := s.issue(claims.UserID, exp)
	if err != nil {
		return nil, err
	}

	rotated, err := s.store.Sessions.RotateToken(ctx, session.ID, refreshToken, creds.RefreshToken, exp)
	if err != nil {
		return nil, utils.NewInternalError("failed to store refresh token", err)
	}
	if rotated == 0 {
		return nil, utils.NewAuthError("Refresh token has already been used")
	}
	return creds, nil
}

// CloseExpired closes sessions whose refresh credential has expired and
// frees their tables. Returns how many were closed.
func (s *SessionService) CloseExpired(ctx context.Context) (int, error) {
	sessions, err := s.store.Sessions.ListExpiredOpen(ctx, s.now())
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range sessions {
		session := &sessions[i]
		var ok bool
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			var err error
			ok, err = s.closeSession(ctx, tx, session)
			return err
		})
		if err != nil {
			utils.ErrorLogger.Errorf("failed to close expired session %d: %v", session.ID, err)
			continue
		}
		if ok {
			closed++
		}
	}
	return closed, nil
}

func (s *SessionService) findOrCreateGuest(ctx context.Context, tx *repository.Store, phone string) (*models.Guest, error) {
	guest, err := tx.Guests.FindByPhone(ctx, phone)
	if err == nil {
		return guest, nil
	}
	if !repository.IsNotFound(err) {
		return nil, utils.NewInternalError("failed to load guest", err)
	}

	guest = &models.Guest{Phone: phone}
	if err := tx.Guests.Create(ctx, guest); err != nil {
		return nil, utils.NewInternalError("failed to create guest", err)
	}
	return guest, nil
}

// closeOpenSessions ends sessions the guest left open elsewhere.
func (s *SessionService) closeOpenSessions(ctx context.Context, tx *repository.Store, guestID uint) error {
	for {
		session, err := tx.Sessions.FindLatestOpenForGuest(ctx, guestID)
		if repository.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return utils.NewInternalError("failed to load previous session", err)
		}
		ok, err := s.closeSession(ctx, tx, session)
		if err != nil || !ok {
			return err
		}
	}
}

// closeSession blanks the credential and frees the table. It reports false,
// touching nothing, when the session was already closed.
func (s *SessionService) closeSession(ctx context.Context, tx *repository.Store, session *models.GuestSession) (bool, error) {
	n, err := tx.Sessions.Close(ctx, session.ID)
	if err != nil {
		return false, utils.NewInternalError("failed to close session", err)
	}
	if n == 0 {
		return false, nil
	}
	session.RefreshToken = ""
	if err := tx.Tables.SetStatus(ctx, session.TableID, models.TableStatusAvailable); err != nil {
		return false, utils.NewInternalError("failed to free table", err)
	}
	return true, nil
}

func (s *SessionService) issue(guestID uint, refreshExp time.Time) (*Credentials, error) {
	access, err := s.tokens.GenerateAccessToken(guestID, models.RoleGuest, s.accessTTL)
	if err != nil {
		return nil, utils.NewInternalError("failed to sign access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(guestID, models.RoleGuest, refreshExp)
	if err != nil {
		return nil, utils.NewInternalError("failed to sign refresh token", err)
	}
	return &Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

func checkTableOpenForLogin(table *models.Table) error {
	switch table.Status {
	case models.TableStatusHidden:
		return utils.NewBusinessError("Table %d is hidden, please choose another table", table.Number)
	case models.TableStatusReserved:
		return utils.NewBusinessError("Table %d is already occupied, please contact staff for help", table.Number)
	}
	return nil
}
