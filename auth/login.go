// Package auth turns identity-provider logins into API tokens and keeps the
// accounts behind them: customers, merchant staff, couriers and guest sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/services/cart"
	"github.com/ronwsv/menuly-delivery/services/delivery"
	"gorm.io/gorm"
)

var (
	ErrPendingApproval = apperr.Forbidden("Pending approval by super admin")
	ErrNoRestaurant    = apperr.Forbidden("Account is not linked to a restaurant")
	ErrNotCourier      = apperr.Forbidden("No courier is registered for this account")
	ErrUnknownRole     = apperr.Validation("Role must be customer, merchant or courier")
	ErrSessionExpired  = apperr.Unauthorized("Guest session expired")
)

// Outcomes of moving a guest cart into the customer's cart at login.
const (
	MergeNone    = "no-guest-cart"
	MergeSuccess = "merged-success"
	MergeEmpty   = "guest-cart-empty"
	MergeFailed  = "merge-failed"
)

type Options struct {
	SuperAdminEmail string
	GuestTTL        time.Duration
}

type Service struct {
	db         *gorm.DB
	issuer     *Issuer
	verifier   TokenVerifier
	carts      *cart.Service
	couriers   *delivery.Service
	superAdmin string
	guestTTL   time.Duration
	now        func() time.Time
}

func NewService(db *gorm.DB, issuer *Issuer, verifier TokenVerifier, carts *cart.Service, couriers *delivery.Service, opts Options) *Service {
	ttl := opts.GuestTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		db:         db,
		issuer:     issuer,
		verifier:   verifier,
		carts:      carts,
		couriers:   couriers,
		superAdmin: strings.ToLower(strings.TrimSpace(opts.SuperAdminEmail)),
		guestTTL:   ttl,
		now:        time.Now,
	}
}

type LoginInput struct {
	IDToken string `json:"idToken" binding:"required"`
	Role    string `json:"role"`
	GuestID string `json:"guest_id"`
}

// Session is the answer to every successful login.
type Session struct {
	Token       string     `json:"token"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Role        actor.Role `json:"role"`
	MergeStatus string     `json:"merge_status,omitempty"`
	Profile     any        `json:"profile,omitempty"`
}

// Login verifies an identity-provider token and issues an API token for the
// requested role. The configured super admin email always logs in as superadmin.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	id, err := s.verifier.Verify(ctx, in.IDToken)
	if err != nil {
		return Session{}, err
	}
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))

	if s.superAdmin != "" && id.Email == s.superAdmin {
		return s.session(actor.Actor{ID: id.UID, Role: actor.RoleSuperadmin, Email: id.Email}, time.Time{}, id)
	}

	switch actor.Role(strings.ToLower(strings.TrimSpace(in.Role))) {
	case "", actor.RoleCustomer:
		return s.loginCustomer(ctx, id, in.GuestID)
	case actor.RoleMerchant:
		return s.loginStaff(ctx, id)
	case actor.RoleCourier:
		return s.loginCourier(ctx, id)
	}
	return Session{}, ErrUnknownRole
}

func (s *Service) session(a actor.Actor, expiresAt time.Time, profile any) (Session, error) {
	token, exp, err := s.issuer.Issue(a, expiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, Role: a.Role, Profile: profile}, nil
}

func (s *Service) loginCustomer(ctx context.Context, id Identity, guestID string) (Session, error) {
	c := models.Customer{ID: id.UID}
	err := s.db.WithContext(ctx).
		Where(models.Customer{ID: id.UID}).
		Attrs(models.Customer{Email: id.Email, Name: id.Name, Picture: id.Picture, Provider: "google"}).
		FirstOrCreate(&c).Error
	if err != nil {
		return Session{}, err
	}

	updates := map[string]any{}
	if id.Name != "" && id.Name != c.Name {
		updates["name"] = id.Name
		c.Name = id.Name
	}
	if id.Picture != "" && id.Picture != c.Picture {
		updates["picture"] = id.Picture
		c.Picture = id.Picture
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
			return Session{}, err
		}
	}

	status := MergeNone
	if guestID != "" {
		merged, err := s.carts.MergeSessionCart(ctx, guestID, c.ID)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "guest cart merge failed", "guest_id", guestID, "customer_id", c.ID, "error", err)
			status = MergeFailed
		case merged:
			status = MergeSuccess
		default:
			status = MergeEmpty
		}
	}

	sess, err := s.session(actor.Actor{ID: c.ID, Role: actor.RoleCustomer, Email: c.Email}, time.Time{}, c)
	sess.MergeStatus = status
	return sess, err
}

// loginStaff registers unknown staff as pending and only lets approved staff
// bound to a restaurant in.
func (s *Service) loginStaff(ctx context.Context, id Identity) (Session, error) {
	db := s.db.WithContext(ctx)

	var st models.Staff
	err := db.Where("email = ?", id.Email).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = models.Staff{Email: id.Email, Name: id.Name, Picture: id.Picture, Approved: false}
		if err := db.Create(&st).Error; err != nil {
			return Session{}, err
		}
		slog.InfoContext(ctx, "staff registered, pending approval", "email", id.Email)
		return Session{}, ErrPendingApproval
	}
	if err != nil {
		return Session{}, err
	}

	if err := db.Model(&models.Staff{}).Where("id = ?", st.ID).Updates(models.Staff{Name: id.Name, Picture: id.Picture}).Error; err != nil {
		return Session{}, err
	}
	if err := db.First(&st, st.ID).Error; err != nil {
		return Session{}, err
	}
	if !st.Approved {
		return Session{}, ErrPendingApproval
	}
	if st.RestaurantID == nil {
		return Session{}, ErrNoRestaurant
	}

	return s.session(actor.Actor{
		ID:           StaffActorID(st.ID),
		Role:         actor.RoleMerchant,
		Email:        st.Email,
		RestaurantID: *st.RestaurantID,
	}, time.Time{}, st)
}

func (s *Service) loginCourier(ctx context.Context, id Identity) (Session, error) {
	c, err := s.couriers.BindCourier(ctx, id.Email, id.UID)
	if errors.Is(err, delivery.ErrCourierNotFound) {
		return Session{}, ErrNotCourier
	}
	if err != nil {
		return Session{}, err
	}
	return s.session(actor.Actor{ID: id.UID, Role: actor.RoleCourier, Email: c.Email, CourierID: c.ID}, time.Time{}, c)
}

// Guest opens an anonymous storefront session. Its token expires with the session.
func (s *Service) Guest(ctx context.Context) (Session, error) {
	g := models.GuestSession{
		ID:        "guest_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		ExpiresAt: s.now().Add(s.guestTTL),
	}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return Session{}, err
	}
	return s.session(actor.Actor{ID: g.ID, Role: actor.RoleGuest}, g.ExpiresAt, g)
}

// Authenticate resolves a bearer token to its actor. Guest tokens must also
// match a stored, unexpired session.
func (s *Service) Authenticate(ctx context.Context, token string) (actor.Actor, error) {
	a, err := s.issuer.Parse(token)
	if err != nil {
		return actor.Actor{}, err
	}
	if a.Role != actor.RoleGuest {
		return a, nil
	}

	var g models.GuestSession
	err = s.db.WithContext(ctx).Where("id = ?", a.ID).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return actor.Actor{}, ErrSessionExpired
	}
	if err != nil {
		return actor.Actor{}, err
	}
	if !g.ExpiresAt.After(s.now()) {
		return actor.Actor{}, ErrSessionExpired
	}
	return a, nil
}

// PurgeExpiredGuests deletes expired guest sessions together with their carts.
func (s *Service) PurgeExpiredGuests(ctx context.Context) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.GuestSession{}).Where("expires_at <= ?", s.now()).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		var cartIDs []uint
		if err := tx.Model(&models.Cart{}).Where("session_id IN ?", ids).Pluck("id", &cartIDs).Error; err != nil {
			return err
		}
		for _, id := range cartIDs {
			if err := cart.Delete(tx, id); err != nil {
				return err
			}
		}

		res := tx.Where("id IN ?", ids).Delete(&models.GuestSession{})
		purged = res.RowsAffected
		return res.Error
	})
	return purged, err
}

// RunGuestCleanup purges expired guest sessions every interval until ctx ends.
func (s *Service) RunGuestCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpiredGuests(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "guest cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired guest sessions purged", "count", n)
			}
		}
	}
}
