package factory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/suite"

	"github.com/ic-ufrj/alumnic/internal/directory"
	"github.com/ic-ufrj/alumnic/internal/model"
	"github.com/ic-ufrj/alumnic/internal/portal"
	"github.com/ic-ufrj/alumnic/internal/services/registration"
)

// fakeLDAP is an in-memory stand-in for the institutional directory,
// shared by every connection the gateway dials.
type fakeLDAP struct {
	mu        sync.Mutex
	uidNumber int64
	nextRid   int64
	usernames map[string]string // username -> enrollment
	added     []*ldap.AddRequest
}

func newFakeLDAP() *fakeLDAP {
	return &fakeLDAP{
		uidNumber: 5000,
		nextRid:   11000,
		usernames: map[string]string{},
	}
}

func (f *fakeLDAP) dial(ctx context.Context) (directory.Conn, error) {
	return &fakeLDAPConn{store: f}, nil
}

type fakeLDAPConn struct {
	store *fakeLDAP
}

func (c *fakeLDAPConn) Bind(username, password string) error { return nil }
func (c *fakeLDAPConn) Close() error                         { return nil }

func (c *fakeLDAPConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	switch {
	case req.Filter == "(objectClass=sambaDomain)":
		return &ldap.SearchResult{Entries: []*ldap.Entry{ldap.NewEntry(
			"sambaDomainName=DCC,"+req.BaseDN,
			map[string][]string{
				"uidNumber":    {fmt.Sprintf("%d", c.store.uidNumber)},
				"sambaNextRid": {fmt.Sprintf("%d", c.store.nextRid)},
			},
		)}}, nil

	case strings.HasPrefix(req.Filter, "(dre="):
		enrollment := strings.TrimSuffix(strings.TrimPrefix(req.Filter, "(dre="), ")")
		for username, e := range c.store.usernames {
			if e == enrollment {
				return &ldap.SearchResult{Entries: []*ldap.Entry{ldap.NewEntry(
					"uid="+username+","+req.BaseDN,
					map[string][]string{"uid": {username}},
				)}}, nil
			}
		}
		return &ldap.SearchResult{}, nil

	case strings.HasPrefix(req.Filter, "(uid="):
		username := strings.TrimSuffix(strings.TrimPrefix(req.Filter, "(uid="), ")")
		if _, ok := c.store.usernames[username]; ok {
			return &ldap.SearchResult{Entries: []*ldap.Entry{ldap.NewEntry(
				"uid="+username+","+req.BaseDN, nil,
			)}}, nil
		}
		return &ldap.SearchResult{}, nil
	}

	return &ldap.SearchResult{}, nil
}

func (c *fakeLDAPConn) Modify(req *ldap.ModifyRequest) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, change := range req.Changes {
		if change.Operation != ldap.DeleteAttribute {
			continue
		}
		current := fmt.Sprintf("%d", c.store.uidNumber)
		if change.Modification.Type == "sambaNextRid" {
			current = fmt.Sprintf("%d", c.store.nextRid)
		}
		if change.Modification.Vals[0] != current {
			return ldap.NewError(ldap.LDAPResultNoSuchAttribute, fmt.Errorf("stale counter"))
		}
	}
	c.store.uidNumber++
	c.store.nextRid++
	return nil
}

func (c *fakeLDAPConn) Add(req *ldap.AddRequest) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	username := strings.TrimPrefix(strings.SplitN(req.DN, ",", 2)[0], "uid=")
	if _, ok := c.store.usernames[username]; ok {
		return ldap.NewError(ldap.LDAPResultEntryAlreadyExists, fmt.Errorf("entry exists"))
	}

	enrollment := ""
	for _, attr := range req.Attributes {
		if attr.Type == "dccDRE" {
			enrollment = attr.Vals[0]
		}
	}
	c.store.usernames[username] = enrollment
	c.store.added = append(c.store.added, req)
	return nil
}

// fakePortal answers the document verification exchange with a fixed
// verdict page.
func fakePortal(t *testing.T, verdict string) portal.Config {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /form", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><form><input type="hidden" name="javax.faces.ViewState" value="j_id1"/></form></html>`)
	})
	mux.HandleFunc("POST /submit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, verdict)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := portal.DefaultConfig()
	cfg.FormURL = server.URL + "/form"
	cfg.SubmitURL = server.URL + "/submit"
	return cfg
}

func enrolledVerdict(name, program string) string {
	return fmt.Sprintf(`<html><body>
<div id="msgDocumentoValido">Documento válido</div>
<span class="gnosys-item-visualizacao">%s</span>
<span class="gnosys-item-visualizacao">12.345.678-9</span>
<span class="gnosys-item-visualizacao">%s</span>
</body></html>`, name, program)
}

type IntegrationSuite struct {
	suite.Suite
	ldap *fakeLDAP
	ctx  context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.ldap = newFakeLDAP()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) newApp(verdict string) *TestApp {
	return NewTestApp(s.ldap.dial, fakePortal(s.T(), verdict))
}

func (s *IntegrationSuite) input() registration.Input {
	return registration.Input{
		Enrollment:    "123456789",
		IssueDate:     "01/03/2025",
		IssueTime:     "14:30",
		SignatureCode: "A3B1.7E5D.F002.19AC.4F6B.9D3E.82C1.BAAF",
		FullName:      "João Carlos Pereira da Silva",
		Email:         "joao@gmail.com",
		Phone:         "(21) 99999-8888",
		Password:      model.NewSecret("S3nhaForte"),
	}
}

// Test: complete registration flow from submission to directory entry
func (s *IntegrationSuite) TestCompleteRegistrationFlow() {
	app := s.newApp(enrolledVerdict("JOAO CARLOS PEREIRA DA SILVA", "Ciência da Computação"))

	username, err := app.Registration.Register(s.ctx, s.input())
	s.Require().NoError(err)
	s.Equal("joaocps", username)

	// The directory entry landed with the allocated ids.
	s.Require().Len(s.ldap.added, 1)
	entry := s.ldap.added[0]
	s.Equal("uid=joaocps,ou=alunos,ou=academicos,ou=usuarios,dc=dcc,dc=ufrj,dc=br", entry.DN)
	s.Equal(int64(5001), s.ldap.uidNumber)
	s.Equal(int64(11001), s.ldap.nextRid)
}

// Test: a second registration for the same enrollment is refused
func (s *IntegrationSuite) TestRepeatedRegistrationIsRedundant() {
	app := s.newApp(enrolledVerdict("JOAO CARLOS PEREIRA DA SILVA", "Ciência da Computação"))

	_, err := app.Registration.Register(s.ctx, s.input())
	s.Require().NoError(err)

	_, err = app.Registration.Register(s.ctx, s.input())
	var redundant *model.RedundantRegistrationError
	s.Require().ErrorAs(err, &redundant)
	s.Equal("joaocps", redundant.Username)
	s.Len(s.ldap.added, 1)
}

// Test: a sibling with the same name falls through to the next candidate
func (s *IntegrationSuite) TestTakenUsernameFallsThrough() {
	s.ldap.usernames["joaocps"] = "999999999"

	app := s.newApp(enrolledVerdict("JOAO CARLOS PEREIRA DA SILVA", "Ciência da Computação"))

	username, err := app.Registration.Register(s.ctx, s.input())
	s.Require().NoError(err)
	s.Equal("joaocpsilva", username)
}

// Test: wrong program is refused even though the directory has room
func (s *IntegrationSuite) TestOtherProgramRefused() {
	app := s.newApp(enrolledVerdict("JOAO CARLOS PEREIRA DA SILVA", "Engenharia Eletrônica"))

	_, err := app.Registration.Register(s.ctx, s.input())
	var other *model.OtherProgramError
	s.Require().ErrorAs(err, &other)
	s.Empty(s.ldap.added)
}

// Test: the registration outcome lands in the metrics registry
func (s *IntegrationSuite) TestMetricsRecorded() {
	app := s.newApp(enrolledVerdict("JOAO CARLOS PEREIRA DA SILVA", "Ciência da Computação"))

	_, err := app.Registration.Register(s.ctx, s.input())
	s.Require().NoError(err)

	families, err := app.Registry.Gather()
	s.Require().NoError(err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	s.Contains(names, "alumnic_registrations_total")
}
