package factory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ic-ufrj/alumnic/internal/dependencies/mocks"
	"github.com/ic-ufrj/alumnic/internal/directory"
	"github.com/ic-ufrj/alumnic/internal/metrics"
	"github.com/ic-ufrj/alumnic/internal/portal"
	"github.com/ic-ufrj/alumnic/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing: mocked clock and
// randomness, a directory gateway dialing through the given DialFunc, and
// a verifier pointed at the given portal (an httptest server, normally).
func NewTestApp(dial directory.DialFunc, portalCfg portal.Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom(0xde, 0xad, 0xbe, 0xef)
	logger := testutil.NopLogger()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	dirCfg := directory.DefaultConfig()
	dirCfg.Defaults = directory.AccountDefaults{
		GIDNumber:       "1001",
		SIDPrefix:       "S-1-5-21-1004336348-1177238915-682003330-",
		AcctFlags:       "[U          ]",
		LMPassword:      "XXX",
		PasswordHistory: "0000",
		PrimaryGroupSID: "S-1-5-21-1004336348-1177238915-682003330-513",
		Quota:           "4096",
		LoginShell:      "/bin/bash",
		MailDomain:      "dcc.ufrj.br",
		HomePrefix:      "/usuarios/alunos/",
	}

	gateway := directory.NewWithDial(dirCfg, dial, mockClock, mockRandom, m, logger)
	verifier := portal.New(portalCfg, mockClock, m, logger)

	app := newWithDependencies(gateway, verifier, mockClock, mockRandom, registry, m, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
