package directory

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"github.com/ic-ufrj/alumnic/internal/services/name"
)

// LookupResult is the outcome of probing the directory before a
// registration: either the enrollment is new and a username is free for it,
// or it is already provisioned.
type LookupResult interface {
	isLookupResult()
}

// SlotAvailable means the enrollment id is not in the directory yet.
// Username is the first free candidate the new account should use.
type SlotAvailable struct {
	Username string
}

// AlreadyRegistered means the enrollment id is already provisioned.
// Username is the account that holds it.
type AlreadyRegistered struct {
	Username string
}

func (SlotAvailable) isLookupResult()     {}
func (AlreadyRegistered) isLookupResult() {}

// Lookup checks whether the enrollment id is already provisioned and, when
// it is not, finds the first free username candidate for the student's
// name. Both probes run on a single directory session.
func (g *Gateway) Lookup(ctx context.Context, enrollment string, n name.Name) (LookupResult, error) {
	var result LookupResult

	err := g.withSession(ctx, func(conn Conn) error {
		existing, found, err := g.findByEnrollment(conn, enrollment)
		if err != nil {
			return err
		}
		if found {
			result = AlreadyRegistered{Username: existing}
			return nil
		}

		username, err := g.firstAvailableUsername(conn, n)
		if err != nil {
			return err
		}
		result = SlotAvailable{Username: username}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// findByEnrollment searches the whole tree for an entry holding the
// enrollment id and projects its username.
func (g *Gateway) findByEnrollment(conn Conn, enrollment string) (string, bool, error) {
	req := ldap.NewSearchRequest(
		g.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(dre=%s)", ldap.EscapeFilter(enrollment)),
		[]string{"uid"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return "", false, fmt.Errorf("directory enrollment search: %w", err)
	}
	if len(res.Entries) == 0 {
		return "", false, nil
	}

	uid := res.Entries[0].GetAttributeValue("uid")
	if uid == "" {
		return "", false, ErrMissingUID
	}
	return uid, true, nil
}

// usernameTaken reports whether any entry already holds the username.
func (g *Gateway) usernameTaken(conn Conn, username string) (bool, error) {
	req := ldap.NewSearchRequest(
		g.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username)),
		nil,
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return false, fmt.Errorf("directory username search: %w", err)
	}
	return len(res.Entries) > 0, nil
}

// firstAvailableUsername walks the candidate sequence in order and returns
// the first username not present in the directory.
func (g *Gateway) firstAvailableUsername(conn Conn, n name.Name) (string, error) {
	for _, candidate := range n.Usernames() {
		taken, err := g.usernameTaken(conn, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrNoAvailableUsername
}
