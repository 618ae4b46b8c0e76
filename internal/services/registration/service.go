// Package registration orchestrates the account registration workflow:
// field validation, the concurrent checks against the authentication portal
// and the directory, the reconciliation of their outcomes and the final
// directory write.
package registration

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ic-ufrj/alumnic/internal/directory"
	"github.com/ic-ufrj/alumnic/internal/metrics"
	"github.com/ic-ufrj/alumnic/internal/model"
	"github.com/ic-ufrj/alumnic/internal/portal"
	"github.com/ic-ufrj/alumnic/internal/services/name"
	"github.com/ic-ufrj/alumnic/internal/services/validate"
)

// Directory is the slice of the directory gateway the service uses.
type Directory interface {
	Lookup(ctx context.Context, enrollment string, n name.Name) (directory.LookupResult, error)
	CreateAccount(ctx context.Context, username string, reg *model.Registration) error
}

// Verifier authenticates enrollment documents.
type Verifier interface {
	Verify(ctx context.Context, doc portal.Document) (portal.Result, error)
}

// Input carries the raw, untrusted fields of a registration request.
type Input struct {
	Enrollment    string
	IssueDate     string
	IssueTime     string
	SignatureCode string
	FullName      string
	Email         string
	Phone         string
	Password      model.Secret
}

// Service runs registrations end to end.
type Service struct {
	directory Directory
	verifier  Verifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a registration Service.
func New(dir Directory, verifier Verifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		directory: dir,
		verifier:  verifier,
		metrics:   m,
		logger:    logger,
	}
}

// Register provisions an account for a new student and returns the assigned
// username. The workflow:
//
//  1. Validate every field, rejecting on the first failure.
//  2. Check the document with the portal and probe the directory for the
//     enrollment id, concurrently. Both checks settle before anything is
//     decided; cancelling ctx abandons both.
//  3. Reconcile: an existing registration wins over everything, then an
//     unauthenticated document, then a wrong program, then a name that
//     does not match the official record.
//  4. Allocate the numeric ids and write the directory entry.
//
// Allocation and entry creation failures are transient: the caller may
// retry the whole registration, which re-probes availability.
func (s *Service) Register(ctx context.Context, in Input) (string, error) {
	reg, err := s.validateAll(in)
	if err != nil {
		s.metrics.ObserveRegistration("invalid_field")
		return "", err
	}
	defer reg.Password.Zero()

	reported, err := name.Parse(reg.FullName)
	if err != nil {
		// Unreachable after validation, but don't trust that quietly.
		return "", fmt.Errorf("%w: %q", model.ErrInvalidName, reg.FullName)
	}

	// Fan out to the two sources of truth. They share no state and
	// neither blocks the other's start; the group context cancels the
	// surviving branch if one fails.
	var (
		verdict portal.Result
		lookup  directory.LookupResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		verdict, err = s.verifier.Verify(gctx, portal.Document{
			Enrollment:    reg.Enrollment,
			IssueDate:     reg.IssueDate,
			IssueTime:     reg.IssueTime,
			SignatureCode: reg.SignatureCode,
		})
		return err
	})
	g.Go(func() error {
		var err error
		lookup, err = s.directory.Lookup(gctx, reg.Enrollment, reported)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.ObserveRegistration("check_failed")
		return "", err
	}

	username, err := s.reconcile(reported, reg.FullName, verdict, lookup)
	if err != nil {
		s.metrics.ObserveRegistration(outcomeLabel(err))
		return "", err
	}

	if err := s.directory.CreateAccount(ctx, username, reg); err != nil {
		s.metrics.ObserveRegistration("provision_failed")
		return "", err
	}

	s.metrics.ObserveRegistration("success")
	s.logger.Info("student registered",
		slog.String("enrollment", reg.Enrollment),
		slog.String("username", username))
	return username, nil
}

// reconcile folds the two outcomes into a decision. The directory's word on
// an existing registration beats the document verdict.
func (s *Service) reconcile(reported name.Name, reportedDisplay string, verdict portal.Result, lookup directory.LookupResult) (string, error) {
	existing, registered := lookup.(directory.AlreadyRegistered)
	if registered {
		return "", &model.RedundantRegistrationError{Username: existing.Username}
	}

	var official string
	switch v := verdict.(type) {
	case portal.EnrolledStudent:
		official = v.Name
	case portal.OtherProgram:
		return "", &model.OtherProgramError{Program: v.Program}
	case portal.Unrecognized:
		return "", model.ErrInvalidDocument
	default:
		return "", fmt.Errorf("unexpected portal verdict %T", verdict)
	}

	officialName, err := name.Parse(official)
	if err != nil || !reported.Equal(officialName) {
		return "", &model.NameMismatchError{Reported: reportedDisplay, Official: official}
	}

	slot, ok := lookup.(directory.SlotAvailable)
	if !ok {
		return "", fmt.Errorf("unexpected directory outcome %T", lookup)
	}
	return slot.Username, nil
}

// ProvisionPreverified creates an account under an explicitly chosen
// username without checking the enrollment document, for the exceptional
// registrations handled directly by the supervision staff. The document
// fields are not needed; everything else still goes through validation.
func (s *Service) ProvisionPreverified(ctx context.Context, username string, in Input) error {
	reg := &model.Registration{Password: in.Password}
	defer reg.Password.Zero()

	var err error
	if reg.Enrollment, err = validate.Enrollment(in.Enrollment); err != nil {
		return err
	}
	if reg.FullName, err = validate.FullName(in.FullName); err != nil {
		return err
	}
	if reg.Email, err = validate.Email(in.Email); err != nil {
		return err
	}
	if reg.Phone, err = validate.Phone(in.Phone); err != nil {
		return err
	}
	if err = validate.Password(&reg.Password); err != nil {
		return err
	}

	if err := s.directory.CreateAccount(ctx, username, reg); err != nil {
		return err
	}

	s.logger.Info("preverified student registered",
		slog.String("enrollment", reg.Enrollment),
		slog.String("username", username))
	return nil
}

// validateAll runs every field validator, short-circuiting on the first
// failure, and assembles the canonical registration.
func (s *Service) validateAll(in Input) (*model.Registration, error) {
	reg := &model.Registration{Password: in.Password}

	var err error
	if reg.Enrollment, err = validate.Enrollment(in.Enrollment); err != nil {
		return nil, err
	}
	if reg.IssueDate, err = validate.IssueDate(in.IssueDate); err != nil {
		return nil, err
	}
	if reg.IssueTime, err = validate.IssueTime(in.IssueTime); err != nil {
		return nil, err
	}
	if reg.SignatureCode, err = validate.SignatureCode(in.SignatureCode); err != nil {
		return nil, err
	}
	if reg.FullName, err = validate.FullName(in.FullName); err != nil {
		return nil, err
	}
	if reg.Email, err = validate.Email(in.Email); err != nil {
		return nil, err
	}
	if reg.Phone, err = validate.Phone(in.Phone); err != nil {
		return nil, err
	}
	if err = validate.Password(&reg.Password); err != nil {
		return nil, err
	}

	return reg, nil
}

// outcomeLabel maps a reconciliation failure to its metric label.
func outcomeLabel(err error) string {
	switch err.(type) {
	case *model.RedundantRegistrationError:
		return "already_registered"
	case *model.OtherProgramError:
		return "other_program"
	case *model.NameMismatchError:
		return "name_mismatch"
	default:
		return "invalid_document"
	}
}
