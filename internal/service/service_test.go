package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"redeemr/rewards-service/internal/auth"
	"redeemr/rewards-service/internal/models"
	"redeemr/rewards-service/internal/store/sqlite"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[string]string
	err      error
}

func (n *recordingNotifier) Send(ctx context.Context, message, recipient string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.messages == nil {
		n.messages = make(map[string]string)
	}
	n.messages[recipient] = message
	return n.err
}

var resetTokenPattern = regexp.MustCompile(`token to reset your password: (\S+)`)

func (n *recordingNotifier) tokenFor(t *testing.T, recipient string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	match := resetTokenPattern.FindStringSubmatch(n.messages[recipient])
	require.Len(t, match, 2, "no reset token sent to %s", recipient)
	return match[1]
}

type fixture struct {
	ctx      context.Context
	svc      *Service
	notifier *recordingNotifier
	issuer   *auth.TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger, _ := test.NewNullLogger()
	notifier := &recordingNotifier{}
	issuer := auth.NewTokenIssuer("test-secret", 30*time.Minute)
	svc := New(st, Options{
		Hasher:   auth.NewHasher(bcrypt.MinCost),
		Issuer:   issuer,
		Notifier: notifier,
		Logger:   logger,
	})
	return &fixture{ctx: ctx, svc: svc, notifier: notifier, issuer: issuer}
}

func (f *fixture) register(t *testing.T, email string) models.Identity {
	t.Helper()
	user, err := f.svc.Accounts.Register(f.ctx, RegisterInput{Email: email, Password: "password1", Name: "User " + email})
	require.NoError(t, err)
	return models.IdentityOf(user)
}

func (f *fixture) admin(t *testing.T) models.Identity {
	t.Helper()
	user, err := f.svc.Accounts.Register(f.ctx, RegisterInput{Email: "admin@example.com", Password: "password1", Name: "Admin", IsSuperuser: true})
	require.NoError(t, err)
	return models.IdentityOf(user)
}

func (f *fixture) approvedBusiness(t *testing.T, email string) (models.Identity, models.Business) {
	t.Helper()
	owner := f.register(t, email)
	business, err := f.svc.Businesses.Register(f.ctx, owner, "Shop of "+email)
	require.NoError(t, err)
	admin := models.Identity{UserID: "00000000-0000-0000-0000-000000000000", Role: models.RoleAdministrator, IsSuperuser: true}
	business, err = f.svc.Businesses.Approve(f.ctx, admin, business.ID)
	require.NoError(t, err)
	return owner, business
}

func TestRegisterLoginResolve(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Accounts.Register(f.ctx, RegisterInput{Email: "  Alice@Example.com ", Password: "wonderland", Name: " Alice "})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, models.RoleStandard, user.Role())

	token, err := f.svc.Accounts.Authenticate(f.ctx, "ALICE@example.com", "wonderland", false)
	require.NoError(t, err)

	identity, err := f.svc.Sessions.Resolve(f.ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)

	profile, err := f.svc.Accounts.Profile(f.ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "Alice", profile.Name)
	require.NotNil(t, profile.LastLogin)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		input RegisterInput
		want  error
	}{
		{RegisterInput{Email: "not-an-email", Password: "password1", Name: "X"}, ErrInvalidEmail},
		{RegisterInput{Email: "", Password: "password1", Name: "X"}, ErrInvalidEmail},
		{RegisterInput{Email: "a@example.com", Password: "short", Name: "X"}, ErrWeakPassword},
		{RegisterInput{Email: "a@example.com", Password: strings.Repeat("p", 73), Name: "X"}, ErrWeakPassword},
		{RegisterInput{Email: "a@example.com", Password: "password1", Name: "   "}, ErrEmptyName},
	}
	for _, tt := range cases {
		_, err := f.svc.Accounts.Register(f.ctx, tt.input)
		assert.ErrorIs(t, err, tt.want, "input %+v", tt.input)
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindValidation, kind)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@example.com")
	_, err := f.svc.Accounts.Register(f.ctx, RegisterInput{Email: "DUP@example.com", Password: "password1", Name: "Dup"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob@example.com")

	_, wrongPassword := f.svc.Accounts.Authenticate(f.ctx, "bob@example.com", "nope-nope", false)
	_, unknownUser := f.svc.Accounts.Authenticate(f.ctx, "nobody@example.com", "nope-nope", false)
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestRememberMeKeepsSameValidity(t *testing.T) {
	f := newFixture(t)
	f.register(t, "carol@example.com")
	short, err := f.svc.Accounts.Authenticate(f.ctx, "carol@example.com", "password1", false)
	require.NoError(t, err)
	long, err := f.svc.Accounts.Authenticate(f.ctx, "carol@example.com", "password1", true)
	require.NoError(t, err)
	assert.True(t, long.Remember)
	assert.WithinDuration(t, short.ExpiresAt, long.ExpiresAt, 2*time.Second)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	identity := f.register(t, "dave@example.com")

	_, err := f.svc.Sessions.Resolve(f.ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.svc.Sessions.Resolve(f.ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	other, err := auth.NewTokenIssuer("other-secret", time.Minute).Issue(identity.UserID, false)
	require.NoError(t, err)
	_, err = f.svc.Sessions.Resolve(f.ctx, other.Value)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ghost, err := f.issuer.Issue("7b0c2f43-9a8e-4a55-9a40-5f1c8e0f2a11", false)
	require.NoError(t, err)
	_, err = f.svc.Sessions.Resolve(f.ctx, ghost.Value)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveReflectsRoleChanges(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "erin@example.com")
	token, err := f.svc.Accounts.Authenticate(f.ctx, "erin@example.com", "password1", false)
	require.NoError(t, err)

	_, err = f.svc.Businesses.Register(f.ctx, user, "Erin's")
	require.NoError(t, err)

	identity, err := f.svc.Sessions.Resolve(f.ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBusinessOwner, identity.Role)
	assert.True(t, identity.IsBusinessOwner)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, "frank@example.com")

	require.NoError(t, f.svc.Accounts.IssuePasswordReset(f.ctx, "Frank@example.com"))
	token := f.notifier.tokenFor(t, "frank@example.com")

	require.NoError(t, f.svc.Accounts.CompletePasswordReset(f.ctx, token, "brand-new-pass"))
	_, err := f.svc.Accounts.Authenticate(f.ctx, "frank@example.com", "brand-new-pass", false)
	require.NoError(t, err)
	_, err = f.svc.Accounts.Authenticate(f.ctx, "frank@example.com", "password1", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = f.svc.Accounts.CompletePasswordReset(f.ctx, token, "another-pass")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Accounts.IssuePasswordReset(f.ctx, "ghost@example.com"))
	assert.Empty(t, f.notifier.messages)
}

func TestPasswordResetDeliveryFailureIsSilent(t *testing.T) {
	f := newFixture(t)
	f.register(t, "gina@example.com")
	f.notifier.err = errors.New("smtp down")
	assert.NoError(t, f.svc.Accounts.IssuePasswordReset(f.ctx, "gina@example.com"))
}

func TestPasswordResetExpired(t *testing.T) {
	f := newFixture(t)
	f.register(t, "hank@example.com")
	require.NoError(t, f.svc.Accounts.IssuePasswordReset(f.ctx, "hank@example.com"))
	token := f.notifier.tokenFor(t, "hank@example.com")

	f.svc.Accounts.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	err := f.svc.Accounts.CompletePasswordReset(f.ctx, token, "brand-new-pass")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestPasswordResetWeakPasswordConsumesToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ivy@example.com")
	require.NoError(t, f.svc.Accounts.IssuePasswordReset(f.ctx, "ivy@example.com"))
	token := f.notifier.tokenFor(t, "ivy@example.com")

	assert.ErrorIs(t, f.svc.Accounts.CompletePasswordReset(f.ctx, token, "123"), ErrWeakPassword)
	assert.ErrorIs(t, f.svc.Accounts.CompletePasswordReset(f.ctx, token, "long-enough"), ErrTokenInvalid)
	assert.ErrorIs(t, f.svc.Accounts.CompletePasswordReset(f.ctx, "", "long-enough"), ErrTokenInvalid)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	identity := f.register(t, "jack@example.com")

	assert.ErrorIs(t, f.svc.Accounts.ChangePassword(f.ctx, identity, "wrong-current", "newpassword"), ErrInvalidCredentials)
	assert.ErrorIs(t, f.svc.Accounts.ChangePassword(f.ctx, identity, "password1", "tiny"), ErrWeakPassword)
	require.NoError(t, f.svc.Accounts.ChangePassword(f.ctx, identity, "password1", "newpassword"))

	_, err := f.svc.Accounts.Authenticate(f.ctx, "jack@example.com", "newpassword", false)
	assert.NoError(t, err)
}

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	user := f.register(t, "kate@example.com")

	_, err := f.svc.Accounts.ListUsers(f.ctx, user)
	assert.ErrorIs(t, err, ErrForbidden)
	users, err := f.svc.Accounts.ListUsers(f.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.svc.Accounts.ToggleSuperuser(f.ctx, user, admin.UserID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Accounts.ToggleSuperuser(f.ctx, admin, admin.UserID)
	assert.ErrorIs(t, err, ErrSelfSuperuser)
	_, err = f.svc.Accounts.ToggleSuperuser(f.ctx, admin, "bogus")
	assert.ErrorIs(t, err, ErrUserNotFound)

	promoted, err := f.svc.Accounts.ToggleSuperuser(f.ctx, admin, user.UserID)
	require.NoError(t, err)
	assert.True(t, promoted.IsSuperuser)
	demoted, err := f.svc.Accounts.ToggleSuperuser(f.ctx, admin, user.UserID)
	require.NoError(t, err)
	assert.False(t, demoted.IsSuperuser)
}

func TestToggleSuperuserKeepsBusinessOwnership(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	owner, _ := f.approvedBusiness(t, "leo@example.com")

	promoted, err := f.svc.Accounts.ToggleSuperuser(f.ctx, admin, owner.UserID)
	require.NoError(t, err)
	assert.True(t, promoted.IsBusinessOwner)
	assert.Equal(t, models.RoleAdministrator, promoted.Role())
}

func TestSecondBusinessConflicts(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "mia@example.com")

	business, err := f.svc.Businesses.Register(f.ctx, owner, "Mia's Bakery")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, business.Status)
	assert.Equal(t, owner.UserID, business.OwnerID)

	_, err = f.svc.Businesses.Register(f.ctx, owner, "Mia's Second")
	assert.ErrorIs(t, err, ErrAlreadyHasBusiness)

	_, err = f.svc.Businesses.Register(f.ctx, owner, " ")
	assert.ErrorIs(t, err, ErrEmptyName)

	own, err := f.svc.Businesses.Own(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, business.ID, own.ID)
}

func TestConcurrentRegistrationYieldsOneBusiness(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "nina@example.com")

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Businesses.Register(f.ctx, owner, "Nina's")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyHasBusiness)
	}
	assert.Equal(t, 1, ok)
}

func TestOwnBusinessNotFound(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "oscar@example.com")
	_, err := f.svc.Businesses.Own(f.ctx, user)
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestApproveRejectDelete(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	owner := f.register(t, "pat@example.com")
	business, err := f.svc.Businesses.Register(f.ctx, owner, "Pat's")
	require.NoError(t, err)

	_, err = f.svc.Businesses.Approve(f.ctx, admin, "5d5b3f4e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, ErrBusinessNotFound)
	_, err = f.svc.Businesses.Approve(f.ctx, admin, "not-a-uuid")
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	_, err = f.svc.Businesses.Approve(f.ctx, owner, business.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.Businesses.Reject(f.ctx, owner, business.ID), ErrForbidden)
	assert.ErrorIs(t, f.svc.Businesses.Delete(f.ctx, owner, business.ID), ErrForbidden)
	_, err = f.svc.Businesses.List(f.ctx, owner)
	assert.ErrorIs(t, err, ErrForbidden)

	first, err := f.svc.Businesses.Approve(f.ctx, admin, business.ID)
	require.NoError(t, err)
	assert.True(t, first.IsApproved)
	second, err := f.svc.Businesses.Approve(f.ctx, admin, business.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	require.NotNil(t, second.ApprovedAt)
	assert.True(t, first.ApprovedAt.Equal(*second.ApprovedAt))

	assert.ErrorIs(t, f.svc.Businesses.Reject(f.ctx, admin, business.ID), ErrNotPending)

	reward, err := f.svc.Rewards.Create(f.ctx, owner, CreateRewardInput{BusinessID: business.ID, Name: "Coffee", PointsRequired: 10})
	require.NoError(t, err)

	require.NoError(t, f.svc.Businesses.Delete(f.ctx, admin, business.ID))
	_, err = f.svc.Rewards.List(f.ctx, admin, business.ID)
	assert.ErrorIs(t, err, ErrBusinessNotFound)
	_, err = f.svc.Rewards.Redeem(f.ctx, owner, reward.ID)
	assert.ErrorIs(t, err, ErrRewardNotFound)

	all, err := f.svc.Businesses.List(f.ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRejectPending(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	owner := f.register(t, "quinn@example.com")
	business, err := f.svc.Businesses.Register(f.ctx, owner, "Quinn's")
	require.NoError(t, err)

	require.NoError(t, f.svc.Businesses.Reject(f.ctx, admin, business.ID))
	_, err = f.svc.Businesses.Own(f.ctx, owner)
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	again, err := f.svc.Businesses.Register(f.ctx, owner, "Quinn's Revisited")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestRewardOnPendingBusinessFailsForEveryone(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	owner := f.register(t, "rita@example.com")
	business, err := f.svc.Businesses.Register(f.ctx, owner, "Rita's")
	require.NoError(t, err)

	for _, caller := range []models.Identity{owner, admin} {
		_, err := f.svc.Rewards.Create(f.ctx, caller, CreateRewardInput{BusinessID: business.ID, Name: "Early Bird", PointsRequired: 5})
		assert.ErrorIs(t, err, ErrBusinessNotApproved)
	}
}

func TestRewardCreationRules(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	owner, business := f.approvedBusiness(t, "sam@example.com")
	stranger := f.register(t, "stranger@example.com")

	_, err := f.svc.Rewards.Create(f.ctx, stranger, CreateRewardInput{BusinessID: business.ID, Name: "Steal", PointsRequired: 5})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Rewards.Create(f.ctx, owner, CreateRewardInput{BusinessID: business.ID, Name: "Zero", PointsRequired: 0})
	assert.ErrorIs(t, err, ErrInvalidPoints)
	_, err = f.svc.Rewards.Create(f.ctx, owner, CreateRewardInput{BusinessID: business.ID, Name: "Huge", PointsRequired: math.MaxInt32 + 1})
	assert.ErrorIs(t, err, ErrInvalidPoints)
	maxed, err := f.svc.Rewards.Create(f.ctx, owner, CreateRewardInput{BusinessID: business.ID, Name: "Lifetime", PointsRequired: math.MaxInt32})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, maxed.PointsRequired)
	_, err = f.svc.Rewards.Create(f.ctx, owner, CreateRewardInput{BusinessID: business.ID, Name: " ", PointsRequired: 5})
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = f.svc.Rewards.Create(f.ctx, owner, CreateRewardInput{BusinessID: "missing", Name: "Nope", PointsRequired: 5})
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	byOwner, err := f.svc.Rewards.Create(f.ctx, owner, CreateRewardInput{BusinessID: business.ID, Name: "Free Coffee", PointsRequired: 100})
	require.NoError(t, err)
	byAdmin, err := f.svc.Rewards.Create(f.ctx, admin, CreateRewardInput{BusinessID: business.ID, Name: "Free Cake", PointsRequired: 200})
	require.NoError(t, err)

	rewards, err := f.svc.Rewards.List(f.ctx, models.Identity{}, business.ID)
	require.NoError(t, err)
	require.Len(t, rewards, 3)
	assert.ElementsMatch(t, []string{maxed.ID, byOwner.ID, byAdmin.ID}, []string{rewards[0].ID, rewards[1].ID, rewards[2].ID})
}

func TestUnownedBusinessIsAdministratorOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rewards.db")
	st, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger, _ := test.NewNullLogger()
	f := &fixture{ctx: ctx, svc: New(st, Options{Hasher: auth.NewHasher(bcrypt.MinCost), Logger: logger})}
	admin := f.admin(t)
	owner, business := f.approvedBusiness(t, "vera@example.com")

	raw, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, owner.UserID)
	require.NoError(t, err)

	businesses, err := f.svc.Businesses.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, "", businesses[0].OwnerID)

	_, err = f.svc.Rewards.Create(ctx, owner, CreateRewardInput{BusinessID: business.ID, Name: "Ghost Perk", PointsRequired: 5})
	assert.ErrorIs(t, err, ErrForbidden)

	reward, err := f.svc.Rewards.Create(ctx, admin, CreateRewardInput{BusinessID: business.ID, Name: "Admin Perk", PointsRequired: 5})
	require.NoError(t, err)
	assert.Equal(t, business.ID, reward.BusinessID)
}

func TestListRewardsOfPendingBusiness(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	owner := f.register(t, "tess@example.com")
	stranger := f.register(t, "uma@example.com")
	business, err := f.svc.Businesses.Register(f.ctx, owner, "Tess's")
	require.NoError(t, err)

	_, err = f.svc.Rewards.List(f.ctx, stranger, business.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Rewards.List(f.ctx, models.Identity{}, business.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	rewards, err := f.svc.Rewards.List(f.ctx, owner, business.ID)
	require.NoError(t, err)
	assert.Empty(t, rewards)
	_, err = f.svc.Rewards.List(f.ctx, admin, business.ID)
	assert.NoError(t, err)
}

func TestRedeemUsesCaller(t *testing.T) {
	f := newFixture(t)
	owner, business := f.approvedBusiness(t, "vic@example.com")
	customer := f.register(t, "wes@example.com")
	reward, err := f.svc.Rewards.Create(f.ctx, owner, CreateRewardInput{BusinessID: business.ID, Name: "Donut", PointsRequired: 20})
	require.NoError(t, err)

	redemption, err := f.svc.Rewards.Redeem(f.ctx, customer, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.UserID, redemption.UserID)

	_, err = f.svc.Rewards.Redeem(f.ctx, models.Identity{}, reward.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.svc.Rewards.Redeem(f.ctx, customer, "bogus")
	assert.ErrorIs(t, err, ErrRewardNotFound)

	mine, err := f.svc.Rewards.MyRedemptions(f.ctx, customer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, reward.ID, mine[0].RewardID)

	theirs, err := f.svc.Rewards.MyRedemptions(f.ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(ErrAlreadyHasBusiness)
	assert.True(t, ok)
	assert.Equal(t, KindConflict, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
