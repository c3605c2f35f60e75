package factory

import (
	"time"

	"github.com/mcoot/lightsduel/internal/config"
	"github.com/mcoot/lightsduel/internal/dependencies/mocks"
	"github.com/mcoot/lightsduel/internal/dependencies/random"
	"github.com/mcoot/lightsduel/internal/storage/memory"
	"github.com/mcoot/lightsduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Test control
	MockClock *mocks.MockClock
	Memory    *memory.Storage
}

// NewTestApp creates an App backed by memory storage, a mock clock and a
// seeded random source so generated boards repeat between runs
func NewTestApp() *TestApp {
	cfg := config.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Auth.Iterations = 1
	cfg.Admin.Token = "test-token"

	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(cfg, store, mockClock, random.NewSeeded(1), testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Memory:    store,
	}
}
