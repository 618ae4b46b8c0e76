// Package directory owns the protocol session to the institutional LDAP
// directory: bind, search, atomic id counter allocation, entry creation,
// unbind. Nothing else in the application touches the wire protocol.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/ic-ufrj/alumnic/internal/dependencies/clock"
	"github.com/ic-ufrj/alumnic/internal/dependencies/random"
	"github.com/ic-ufrj/alumnic/internal/metrics"
)

// Errors
var (
	// ErrMissingUID means an entry matched the enrollment id but carries
	// no username attribute. The registration exists, but in a state we
	// do not understand: a data integrity problem, not "not found".
	ErrMissingUID = errors.New("registered entry has no uid attribute")

	// ErrNoAvailableUsername means every generated username candidate is
	// taken. With the number of variations tried, a systemic directory
	// problem is more likely than a student whose names are all taken;
	// treat it as an operations signal.
	ErrNoAvailableUsername = errors.New("no available username could be found")

	// ErrAllocationExhausted means the id counter modify kept losing the
	// race against concurrent registrations. Retryable by the caller.
	ErrAllocationExhausted = errors.New("directory id allocation retries exhausted")

	// ErrAccountConflict means the directory rejected the new entry
	// because it already exists, which happens when two registrations
	// race for the same username. Retryable by the caller.
	ErrAccountConflict = errors.New("account entry already exists")
)

// Conn is the slice of the LDAP connection the gateway uses. *ldap.Conn
// implements it; tests substitute a fake.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Modify(req *ldap.ModifyRequest) error
	Add(req *ldap.AddRequest) error
	Close() error
}

// DialFunc opens a raw connection to the directory.
type DialFunc func(ctx context.Context) (Conn, error)

// AccountDefaults are the fixed attribute values stamped on every new
// account. They come from configuration, not computation.
type AccountDefaults struct {
	GIDNumber       string
	SIDPrefix       string
	AcctFlags       string
	LMPassword      string
	PasswordHistory string
	PrimaryGroupSID string
	Quota           string
	LoginShell      string
	MailDomain      string
	HomePrefix      string
}

// Config holds the directory connection settings.
type Config struct {
	URL          string
	BindDN       string
	BindPassword string
	// BaseDN is the root of the tree searched for enrollments, usernames
	// and the domain counter entry.
	BaseDN string
	// StudentsOU is the relative DN under BaseDN where student entries
	// are created.
	StudentsOU string
	// Timeout applies to dialing and to each protocol operation.
	Timeout  time.Duration
	Defaults AccountDefaults
}

// DefaultConfig returns the production settings for everything that is not
// deployment specific.
func DefaultConfig() Config {
	return Config{
		BaseDN:     "dc=dcc,dc=ufrj,dc=br",
		StudentsOU: "ou=alunos,ou=academicos,ou=usuarios",
		Timeout:    30 * time.Second,
		Defaults: AccountDefaults{
			LoginShell: "/bin/bash",
			MailDomain: "dcc.ufrj.br",
			HomePrefix: "/usuarios/alunos/",
		},
	}
}

// Gateway performs the directory operations of the registration flow. Every
// public method owns its own session: connect, bind, operate, unbind, with
// the unbind guaranteed on every exit path.
type Gateway struct {
	cfg     Config
	clock   clock.Clock
	random  random.Random
	metrics *metrics.Metrics
	logger  *slog.Logger
	dial    DialFunc
}

// New creates a Gateway that dials the configured directory URL.
func New(cfg Config, clk clock.Clock, rnd random.Random, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	g := NewWithDial(cfg, nil, clk, rnd, m, logger)
	g.dial = g.dialLDAP
	return g
}

// NewWithDial creates a Gateway with a custom dial function, substituting
// the wire protocol. Tests use it to run the full session logic against a
// fake directory.
func NewWithDial(cfg Config, dial DialFunc, clk clock.Clock, rnd random.Random, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	return &Gateway{
		cfg:     cfg,
		clock:   clk,
		random:  rnd,
		metrics: m,
		logger:  logger,
		dial:    dial,
	}
}

func (g *Gateway) dialLDAP(ctx context.Context) (Conn, error) {
	dialer := &net.Dialer{Timeout: g.cfg.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := ldap.DialURL(g.cfg.URL, ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, fmt.Errorf("directory dial: %w", err)
	}
	conn.SetTimeout(g.cfg.Timeout)
	return conn, nil
}

// withSession runs fn against a bound connection, always closing it.
func (g *Gateway) withSession(ctx context.Context, fn func(conn Conn) error) error {
	start := g.clock.Now()
	defer func() {
		g.metrics.ObserveExternalCall("directory", g.clock.Now().Sub(start))
	}()

	conn, err := g.dial(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			g.logger.Warn("closing directory session", slog.String("error", err.Error()))
		}
	}()

	if err := conn.Bind(g.cfg.BindDN, g.cfg.BindPassword); err != nil {
		return fmt.Errorf("directory bind: %w", err)
	}

	return fn(conn)
}

// studentDN builds the distinguished name for a student entry.
func (g *Gateway) studentDN(username string) string {
	return fmt.Sprintf("uid=%s,%s,%s", ldap.EscapeDN(username), g.cfg.StudentsOU, g.cfg.BaseDN)
}
