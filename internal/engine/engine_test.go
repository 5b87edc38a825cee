package engine

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/broker"
	"github.com/roomly/roomly/internal/database"
	"github.com/roomly/roomly/internal/ledger"
	"github.com/roomly/roomly/internal/model"
	"github.com/roomly/roomly/internal/push"
	"github.com/roomly/roomly/internal/store"
)

// testEnv wires the engines against an in-memory database the way the
// server does, minus push delivery.
type testEnv struct {
	db         *sql.DB
	users      *store.UserStore
	households *store.HouseholdStore
	tasks      *store.TaskStore
	rewards    *store.RewardStore
	challenges *store.ChallengeStore
	activities *store.ActivityStore
	broker     *broker.Broker
	taskEng    *TaskEngine
	redeemEng  *RedemptionEngine
	challEng   *ChallengeEngine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		db:         db,
		users:      store.NewUserStore(db),
		households: store.NewHouseholdStore(db),
		tasks:      store.NewTaskStore(db),
		rewards:    store.NewRewardStore(db),
		challenges: store.NewChallengeStore(db),
		activities: store.NewActivityStore(db),
		broker:     broker.New(logger),
	}

	guard := access.NewGuard(env.households)
	l := ledger.New(env.activities, time.UTC)
	notifier := push.NewNotifier(nil, store.NewPushStore(db), logger)

	env.taskEng = NewTaskEngine(db, guard, env.tasks, env.households, l, env.broker, notifier, logger)
	env.redeemEng = NewRedemptionEngine(db, guard, env.rewards, l, env.broker, notifier, logger)
	env.challEng = NewChallengeEngine(db, guard, env.challenges, l, env.broker, logger)
	return env
}

func (e *testEnv) user(t *testing.T, email, name string) *model.User {
	t.Helper()
	u, err := e.users.Create(email, name)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) household(t *testing.T, name, code string) *model.Household {
	t.Helper()
	h, err := e.households.Create(name, code)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h
}

func (e *testEnv) member(t *testing.T, householdID, userID int64, role string) {
	t.Helper()
	if _, err := e.households.AddMember(householdID, userID, role); err != nil {
		t.Fatalf("add member: %v", err)
	}
}

func (e *testEnv) balance(t *testing.T, userID int64) int {
	t.Helper()
	var balance int
	if err := e.db.QueryRow(`SELECT points FROM users WHERE id = ?`, userID).Scan(&balance); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return balance
}
