package directory

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-ldap/ldap/v3"
)

// allocateAttempts bounds the optimistic retry loop for the id counters.
const allocateAttempts = 5

// allocation is a freshly reserved (uidNumber, rid) pair. Both values are
// unique directory-wide; they are never reused or cached across attempts.
type allocation struct {
	uid string
	rid string
}

// allocateIDs reserves the next uidNumber and Samba rid from the domain
// counter entry. The counters are shared by every concurrent registration,
// so the reservation is optimistic: read the current values, then try a
// delete-old/add-new modify that only succeeds if nobody else moved the
// counters in between. On a lost race it re-reads and tries again, up to
// allocateAttempts times.
func (g *Gateway) allocateIDs(conn Conn) (allocation, error) {
	for attempt := 1; attempt <= allocateAttempts; attempt++ {
		dn, current, err := g.readCounters(conn)
		if err != nil {
			return allocation{}, err
		}

		next := allocation{
			uid: strconv.FormatInt(current.uidNumber+1, 10),
			rid: strconv.FormatInt(current.nextRid+1, 10),
		}

		req := ldap.NewModifyRequest(dn, nil)
		req.Delete("uidNumber", []string{strconv.FormatInt(current.uidNumber, 10)})
		req.Add("uidNumber", []string{next.uid})
		req.Delete("sambaNextRid", []string{strconv.FormatInt(current.nextRid, 10)})
		req.Add("sambaNextRid", []string{next.rid})

		if err := conn.Modify(req); err != nil {
			// Someone else won this round; read fresh values and retry.
			g.metrics.IncAllocationRetry()
			g.logger.Debug("id counter modify lost race",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			continue
		}

		return next, nil
	}

	return allocation{}, ErrAllocationExhausted
}

type counters struct {
	uidNumber int64
	nextRid   int64
}

// readCounters fetches the domain counter entry and its current values.
func (g *Gateway) readCounters(conn Conn) (string, counters, error) {
	req := ldap.NewSearchRequest(
		g.cfg.BaseDN,
		ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
		"(objectClass=sambaDomain)",
		[]string{"uidNumber", "sambaNextRid"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return "", counters{}, fmt.Errorf("directory counter search: %w", err)
	}
	if len(res.Entries) == 0 {
		return "", counters{}, fmt.Errorf("directory counter search: domain entry not found")
	}

	entry := res.Entries[0]

	uidNumber, err := parseCounter(entry.GetAttributeValue("uidNumber"))
	if err != nil {
		return "", counters{}, fmt.Errorf("domain entry uidNumber: %w", err)
	}
	nextRid, err := parseCounter(entry.GetAttributeValue("sambaNextRid"))
	if err != nil {
		return "", counters{}, fmt.Errorf("domain entry sambaNextRid: %w", err)
	}

	return entry.DN, counters{uidNumber: uidNumber, nextRid: nextRid}, nil
}

func parseCounter(v string) (int64, error) {
	if v == "" {
		return 0, fmt.Errorf("attribute missing")
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %q is not numeric", v)
	}
	return n, nil
}
