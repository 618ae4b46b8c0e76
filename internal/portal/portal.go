// Package portal integrates with the institutional document authentication
// portal. It is used for a single purpose: validating the "regularly
// enrolled" document a student presents when registering for an account.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ic-ufrj/alumnic/internal/dependencies/clock"
	"github.com/ic-ufrj/alumnic/internal/metrics"
)

// Errors
var (
	// ErrMissingViewState means the form page had no view-state token.
	// Either the portal changed or it served an error page.
	ErrMissingViewState = errors.New("portal form has no view-state token")

	// ErrAmbiguousVerdict means the response was neither valid nor
	// invalid (or both at once), which should be impossible. The portal's
	// output format probably changed.
	ErrAmbiguousVerdict = errors.New("portal verdict is neither valid nor invalid")

	// ErrUnexpectedItemCount means a valid response did not carry exactly
	// the three display fields (name, registry id, program) we scrape.
	ErrUnexpectedItemCount = errors.New("portal response has an unexpected number of items")
)

// Result is the outcome of a successful document verification.
type Result interface {
	isResult()
}

// EnrolledStudent means the document authenticated and the student belongs
// to the target program. Name is their full official name.
type EnrolledStudent struct {
	Name string
}

// OtherProgram means the document authenticated but the student is enrolled
// in a different program.
type OtherProgram struct {
	Name    string
	Program string
}

// Unrecognized means the portal did not authenticate the document.
type Unrecognized struct{}

func (EnrolledStudent) isResult() {}
func (OtherProgram) isResult()    {}
func (Unrecognized) isResult()    {}

// Document holds the four canonical fields printed on the enrollment
// document, already validated.
type Document struct {
	Enrollment    string
	IssueDate     string
	IssueTime     string
	SignatureCode string
}

// Config holds the portal endpoints and scraping parameters.
type Config struct {
	// FormURL serves the authentication form (GET).
	FormURL string
	// SubmitURL receives the filled form (POST).
	SubmitURL string
	// TargetProgram is the program name, compared verbatim, whose
	// students are entitled to an account.
	TargetProgram string
	Timeout       time.Duration
}

// DefaultConfig returns the production portal settings.
func DefaultConfig() Config {
	return Config{
		FormURL:       "https://gnosys.ufrj.br/Documentos/autenticacao/regularmenteMatriculado",
		SubmitURL:     "https://gnosys.ufrj.br/Documentos/autenticacao.seam",
		TargetProgram: "Ciência da Computação",
		Timeout:       30 * time.Second,
	}
}

// Verifier authenticates enrollment documents against the portal.
type Verifier struct {
	cfg     Config
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Verifier.
func New(cfg Config, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Verifier {
	return &Verifier{cfg: cfg, clock: clk, metrics: m, logger: logger}
}

// Verify runs the two-step portal interaction: fetch the form page to
// obtain the view-state token and the session cookie, then submit the
// document fields and classify the response.
func (v *Verifier) Verify(ctx context.Context, doc Document) (Result, error) {
	start := v.clock.Now()
	defer func() {
		v.metrics.ObserveExternalCall("portal", v.clock.Now().Sub(start))
	}()

	// The two requests must share a session; the portal ties the
	// view-state token to the cookie it sets on the form page.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("portal cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar, Timeout: v.cfg.Timeout}

	viewState, err := v.fetchViewState(ctx, client)
	if err != nil {
		return nil, err
	}

	return v.submit(ctx, client, doc, viewState)
}

func (v *Verifier) fetchViewState(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.FormURL, nil)
	if err != nil {
		return "", fmt.Errorf("portal form request: %w", err)
	}

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("portal form fetch: %w", err)
	}
	defer res.Body.Close()

	page, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", fmt.Errorf("portal form parse: %w", err)
	}

	viewState, ok := page.Find(`[name="javax.faces.ViewState"]`).First().Attr("value")
	if !ok {
		return "", ErrMissingViewState
	}
	return viewState, nil
}

func (v *Verifier) submit(ctx context.Context, client *http.Client, doc Document, viewState string) (Result, error) {
	form := url.Values{}
	form.Set("AJAXREQUEST", "_viewRoot")
	form.Set("gnosys-filtro_link_hidden_", "gnosys-filtro-campos")
	form.Set("alunoMatricula", doc.Enrollment)
	form.Set("situacaoMatricula", "A")
	form.Set("dataAutenticacaoInputDate", doc.IssueDate)
	form.Set("dataAutenticacaoCurrentDate", v.clock.Now().Format("01/2006"))
	form.Set("hora", doc.IssueTime)
	form.Set("assinatura", doc.SignatureCode)
	form.Set("gnosys-filtro", "gnosys-filtro")
	form.Set("autoScroll", "")
	form.Set("javax.faces.ViewState", viewState)
	form.Set("btnValidarDocumento", "btnValidarDocumento")
	form.Set("", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.SubmitURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("portal submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portal submit: %w", err)
	}
	defer res.Body.Close()

	page, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("portal response parse: %w", err)
	}

	return v.classify(page)
}

// classify reads the portal's verdict: exactly one of the two marker
// elements must be present, and a valid document exposes exactly three
// labeled fields (name, registry id, program).
func (v *Verifier) classify(page *goquery.Document) (Result, error) {
	valid := page.Find("#msgDocumentoValido").Length() > 0
	invalid := page.Find("#msgDocumentoInvalido").Length() > 0

	if valid == invalid {
		return nil, ErrAmbiguousVerdict
	}
	if invalid {
		return Unrecognized{}, nil
	}

	var items []string
	page.Find(".gnosys-item-visualizacao").Each(func(_ int, sel *goquery.Selection) {
		items = append(items, sel.Text())
	})

	if len(items) != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrUnexpectedItemCount, len(items))
	}

	officialName, program := items[0], items[2]
	if program == v.cfg.TargetProgram {
		return EnrolledStudent{Name: officialName}, nil
	}
	return OtherProgram{Name: officialName, Program: program}, nil
}
