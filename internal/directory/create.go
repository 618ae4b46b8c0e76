package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/ic-ufrj/alumnic/internal/model"
	"github.com/ic-ufrj/alumnic/internal/services/credential"
	"github.com/ic-ufrj/alumnic/internal/services/name"
)

// CreateAccount reserves a fresh (uidNumber, rid) pair and writes the
// student's directory entry under the given username, all on one session.
// The add is a single atomic operation: there is never a partially created
// entry to roll back. If the directory rejects the add because the entry
// already exists (two registrations racing for the same username), the
// caller gets ErrAccountConflict and should just retry the registration.
func (g *Gateway) CreateAccount(ctx context.Context, username string, reg *model.Registration) error {
	return g.withSession(ctx, func(conn Conn) error {
		alloc, err := g.allocateIDs(conn)
		if err != nil {
			return err
		}

		req, err := g.buildAccountEntry(username, alloc, reg)
		if err != nil {
			return err
		}

		if err := conn.Add(req); err != nil {
			if ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists) {
				return fmt.Errorf("%w: %w", ErrAccountConflict, err)
			}
			return fmt.Errorf("directory add: %w", err)
		}

		g.logger.Info("directory account created",
			slog.String("username", username),
			slog.String("uidNumber", alloc.uid),
			slog.String("rid", alloc.rid))
		return nil
	})
}

// buildAccountEntry assembles the multi-objectClass add request for a new
// student. The derived attribute values are load-bearing: other systems
// read them back, so the formats here must not drift.
func (g *Gateway) buildAccountEntry(username string, alloc allocation, reg *model.Registration) (*ldap.AddRequest, error) {
	defaults := g.cfg.Defaults

	ntHash := credential.NTHash(&reg.Password)
	sshaHash, err := credential.SSHAHash(&reg.Password, g.random)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	// Unix time now, then the password-aging instants derived from it.
	// The kickoff offset has always been 3600*24*60*60 seconds; the
	// inherited policy labels it "10 years" even though it is about 41
	// days. Kept as is: downstream systems expect these exact values.
	now := g.clock.Now().Unix()
	kickoff := now + 3600*24*60*60
	// Day-granularity epoch for the shadow schema.
	today := now / (24 * 60 * 60)
	renewal := today + 3600

	nowStr := strconv.FormatInt(now, 10)
	kickoffStr := strconv.FormatInt(kickoff, 10)
	todayStr := strconv.FormatInt(today, 10)
	renewalStr := strconv.FormatInt(renewal, 10)

	// The display name splits at the first space: first word becomes cn,
	// the rest become sn.
	words := strings.Fields(reg.FullName)
	givenName := words[0]
	surname := strings.Join(words[1:], " ")

	req := ldap.NewAddRequest(g.studentDN(username), nil)
	req.Attribute("objectClass", []string{
		"dcc",
		"dccAluno",
		"sambaSamAccount",
		"shadowAccount",
		"posixAccount",
		"inetOrgPerson",
	})
	req.Attribute("dccDRE", []string{reg.Enrollment})
	req.Attribute("gidNumber", []string{defaults.GIDNumber})
	req.Attribute("homeDirectory", []string{defaults.HomePrefix + username})
	req.Attribute("sambaSID", []string{defaults.SIDPrefix + alloc.rid})
	req.Attribute("uid", []string{username})
	req.Attribute("mail", []string{username + "@" + defaults.MailDomain})
	req.Attribute("uidNumber", []string{alloc.uid})
	// Legacy consumers only take plain ASCII here.
	req.Attribute("gecos", []string{name.ASCIIFold(reg.FullName)})
	req.Attribute("cn", []string{givenName})
	req.Attribute("sn", []string{surname})
	req.Attribute("loginShell", []string{defaults.LoginShell})
	req.Attribute("emailExterno", []string{reg.Email})

	// Samba, currently disabled but kept populated
	req.Attribute("sambaAcctFlags", []string{defaults.AcctFlags})
	req.Attribute("sambaKickoffTime", []string{kickoffStr})
	req.Attribute("sambaLMPassword", []string{defaults.LMPassword})
	req.Attribute("sambaNTPassword", []string{ntHash})
	req.Attribute("sambaPasswordHistory", []string{defaults.PasswordHistory})
	req.Attribute("sambaPrimaryGroupSID", []string{defaults.PrimaryGroupSID})
	req.Attribute("sambaPwdLastSet", []string{nowStr})
	req.Attribute("sambaPwdMustChange", []string{kickoffStr})

	// Shadow, used by the lab logins
	// Lab access never expires
	req.Attribute("shadowExpire", []string{"-1"})
	req.Attribute("shadowFlag", []string{"-1"})
	// Never lock the account after the password expires
	req.Attribute("shadowInactive", []string{"-1"})
	// Date of the last password change
	req.Attribute("shadowLastChange", []string{todayStr})
	req.Attribute("shadowMax", []string{"3600"})
	// The password can be changed at any time
	req.Attribute("shadowMin", []string{"0"})
	// How long before expiry to warn the user
	req.Attribute("shadowWarning", []string{"14"})

	req.Attribute("telephoneNumber", []string{reg.Phone})
	req.Attribute("userPassword", []string{sshaHash})
	req.Attribute("cota", []string{defaults.Quota})
	req.Attribute("monitor", []string{"0"})
	req.Attribute("dataCriacao", []string{todayStr})
	req.Attribute("dataRenovacao", []string{renewalStr})

	return req, nil
}
