package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gootp/internal/passcode/entity"
	"github.com/shandysiswandi/gootp/internal/pkg/clock"
	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/hash"
	"github.com/shandysiswandi/gootp/internal/pkg/idempotency"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
)

type seqCodes struct {
	mu    sync.Mutex
	codes []string
}

func (s *seqCodes) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return "", errors.New("no codes left")
	}
	c := s.codes[0]
	s.codes = s.codes[1:]
	return c, nil
}

type fakeRepoDB struct {
	mu       sync.Mutex
	users    map[string]*entity.User
	hashes   map[int64]string
	verified []int64
	getErr   error
}

func newFakeRepoDB(users ...entity.User) *fakeRepoDB {
	f := &fakeRepoDB{users: map[string]*entity.User{}, hashes: map[int64]string{}}
	for i := range users {
		u := users[i]
		f.users[u.Email] = &u
	}
	return f
}

func (f *fakeRepoDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepoDB) MarkEmailVerified(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, id)
	return nil
}

func (f *fakeRepoDB) UpdatePasswordHash(_ context.Context, id int64, h string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes[id] = h
	return nil
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []PasscodeIssuedEvent
	err    error
}

func (f *fakeMessaging) PublishPasscodeIssued(_ context.Context, msg PasscodeIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return f.err
}

type fakeEnforcer struct {
	allow bool
	err   error
	got   []any
}

func (f *fakeEnforcer) Enforce(rvals ...any) (bool, error) {
	f.got = rvals
	return f.allow, f.err
}

type fixture struct {
	uc       *Usecase
	clock    *clock.Manual
	db       *fakeRepoDB
	mq       *fakeMessaging
	enforcer *fakeEnforcer
	bcrypt   *hash.Bcrypt
}

func newFixture(t *testing.T, yaml string, codes ...string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator error = %v", err)
	}

	clk := clock.NewManual(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	f := &fixture{
		clock: clk,
		db: newFakeRepoDB(
			entity.User{ID: 1, Email: "alice@example.com"},
			entity.User{ID: 2, Email: "bob@example.com", EmailVerified: true},
		),
		mq:       &fakeMessaging{},
		enforcer: &fakeEnforcer{},
		bcrypt:   hash.NewBcrypt(4, ""),
	}

	f.uc = New(Dependency{
		OTP: otp.NewManager(otp.Config{
			Clock: clk,
			Codes: &seqCodes{codes: codes},
		}),
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		Idempotency:   idempotency.NewMemory(),
		Validator:     v,
		Config:        cfg,
		Password:      f.bcrypt,
		Instrument:    instrument.NewNoop(),
		Enforcer:      f.enforcer,
	})

	return f
}

const devConfig = `
app:
  env: development
modules:
  passcode:
    expose_code: true
`

func assertCode(t *testing.T, err error, want goerror.Code) *goerror.Error {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *goerror.Error", err)
	}
	if gerr.Code() != want {
		t.Fatalf("error code = %v, want %v (err %v)", gerr.Code(), want, err)
	}
	return gerr
}
