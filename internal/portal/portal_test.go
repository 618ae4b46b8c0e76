package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ic-ufrj/alumnic/internal/dependencies/mocks"
	"github.com/ic-ufrj/alumnic/internal/testutil"
)

const formPage = `<html><body>
<form>
<input type="hidden" name="javax.faces.ViewState" value="j_id42" />
</form>
</body></html>`

// fakePortal serves the two portal endpoints. The response to the submit is
// configurable per test.
type fakePortal struct {
	server *httptest.Server

	// captured from the submit
	form       map[string]string
	gotCookie  bool
	submitBody string
}

func newFakePortal(t *testing.T, submitBody string) *fakePortal {
	t.Helper()

	p := &fakePortal{submitBody: submitBody}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /form", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123"})
		fmt.Fprint(w, formPage)
	})
	mux.HandleFunc("POST /submit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		p.form = make(map[string]string)
		for k := range r.PostForm {
			p.form[k] = r.PostForm.Get(k)
		}
		if c, err := r.Cookie("JSESSIONID"); err == nil && c.Value == "abc123" {
			p.gotCookie = true
		}
		fmt.Fprint(w, p.submitBody)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func validBody(name, registry, program string) string {
	return fmt.Sprintf(`<html><body>
<div id="msgDocumentoValido">Documento válido</div>
<span class="gnosys-item-visualizacao">%s</span>
<span class="gnosys-item-visualizacao">%s</span>
<span class="gnosys-item-visualizacao">%s</span>
</body></html>`, name, registry, program)
}

const invalidBody = `<html><body>
<div id="msgDocumentoInvalido">Documento inválido</div>
</body></html>`

type VerifierSuite struct {
	suite.Suite
	ctx context.Context
	doc Document
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.ctx = context.Background()
	s.doc = Document{
		Enrollment:    "123456789",
		IssueDate:     "01/03/2025",
		IssueTime:     "14:30",
		SignatureCode: "A3B1.7E5D.F002.19AC.4F6B.9D3E.82C1.BAAF",
	}
}

func (s *VerifierSuite) newVerifier(p *fakePortal) *Verifier {
	cfg := DefaultConfig()
	cfg.FormURL = p.server.URL + "/form"
	cfg.SubmitURL = p.server.URL + "/submit"

	clk := mocks.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	return New(cfg, clk, nil, testutil.NopLogger())
}

func (s *VerifierSuite) TestEnrolledStudent() {
	p := newFakePortal(s.T(), validBody("JOAO CARLOS PEREIRA DA SILVA", "12.345.678-9", "Ciência da Computação"))

	result, err := s.newVerifier(p).Verify(s.ctx, s.doc)
	s.Require().NoError(err)

	s.Equal(EnrolledStudent{Name: "JOAO CARLOS PEREIRA DA SILVA"}, result)
}

func (s *VerifierSuite) TestOtherProgram() {
	p := newFakePortal(s.T(), validBody("MARIA SOUZA", "12.345.678-9", "Engenharia Eletrônica"))

	result, err := s.newVerifier(p).Verify(s.ctx, s.doc)
	s.Require().NoError(err)

	s.Equal(OtherProgram{Name: "MARIA SOUZA", Program: "Engenharia Eletrônica"}, result)
}

func (s *VerifierSuite) TestUnrecognizedDocument() {
	p := newFakePortal(s.T(), invalidBody)

	result, err := s.newVerifier(p).Verify(s.ctx, s.doc)
	s.Require().NoError(err)

	s.Equal(Unrecognized{}, result)
}

func (s *VerifierSuite) TestSubmitCarriesSessionAndFields() {
	p := newFakePortal(s.T(), invalidBody)

	_, err := s.newVerifier(p).Verify(s.ctx, s.doc)
	s.Require().NoError(err)

	// The cookie from the form page must come back on the submit.
	s.True(p.gotCookie)

	s.Equal("j_id42", p.form["javax.faces.ViewState"])
	s.Equal("123456789", p.form["alunoMatricula"])
	s.Equal("01/03/2025", p.form["dataAutenticacaoInputDate"])
	s.Equal("14:30", p.form["hora"])
	s.Equal("A3B1.7E5D.F002.19AC.4F6B.9D3E.82C1.BAAF", p.form["assinatura"])
	s.Equal("A", p.form["situacaoMatricula"])
	// Current month comes from the clock, not the wall time.
	s.Equal("03/2025", p.form["dataAutenticacaoCurrentDate"])
}

func (s *VerifierSuite) TestMissingViewState() {
	p := newFakePortal(s.T(), invalidBody)

	cfg := DefaultConfig()
	// Point the form at the submit endpoint, which has no token.
	cfg.FormURL = p.server.URL + "/submit"
	cfg.SubmitURL = p.server.URL + "/submit"
	v := New(cfg, mocks.NewMockClock(time.Now()), nil, testutil.NopLogger())

	_, err := v.Verify(s.ctx, s.doc)
	s.ErrorIs(err, ErrMissingViewState)
}

func (s *VerifierSuite) TestAmbiguousVerdictBothMarkers() {
	p := newFakePortal(s.T(), `<html><body>
<div id="msgDocumentoValido"></div>
<div id="msgDocumentoInvalido"></div>
</body></html>`)

	_, err := s.newVerifier(p).Verify(s.ctx, s.doc)
	s.ErrorIs(err, ErrAmbiguousVerdict)
}

func (s *VerifierSuite) TestAmbiguousVerdictNoMarkers() {
	p := newFakePortal(s.T(), `<html><body>nothing here</body></html>`)

	_, err := s.newVerifier(p).Verify(s.ctx, s.doc)
	s.ErrorIs(err, ErrAmbiguousVerdict)
}

func (s *VerifierSuite) TestUnexpectedItemCount() {
	p := newFakePortal(s.T(), `<html><body>
<div id="msgDocumentoValido"></div>
<span class="gnosys-item-visualizacao">JOAO</span>
<span class="gnosys-item-visualizacao">12.345.678-9</span>
</body></html>`)

	_, err := s.newVerifier(p).Verify(s.ctx, s.doc)
	s.ErrorIs(err, ErrUnexpectedItemCount)
}

func (s *VerifierSuite) TestContextCancellation() {
	p := newFakePortal(s.T(), invalidBody)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.newVerifier(p).Verify(ctx, s.doc)
	assert.Error(s.T(), err)
}
