package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/geo-catalog/internal/audit"
)

// AuditHandler serves the read side of the audit ledger.
type AuditHandler struct {
	Ledger *audit.Ledger
}

type auditQuery struct {
	Schema    string
	Table     string
	Action    string `validate:"omitempty,oneof=UPDATE DELETE"`
	Principal string
	From      string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To        string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit     int    `validate:"min=1,max=200"`
	Offset    int    `validate:"min=0"`
}

// bindAuditQuery copies q into an auditQuery. Integers that do not parse are
// reported in the returned fields.
func bindAuditQuery(q url.Values) (auditQuery, map[string]string) {
	aq := auditQuery{
		Schema:    q.Get("schema"),
		Table:     q.Get("table"),
		Action:    strings.ToUpper(q.Get("action")),
		Principal: q.Get("principal"),
		From:      q.Get("from"),
		To:        q.Get("to"),
		Limit:     50,
	}
	fields := map[string]string{}
	for name, dst := range map[string]*int{"limit": &aq.Limit, "offset": &aq.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				fields[name] = "number"
				continue
			}
			*dst = n
		}
	}
	return aq, fields
}

func (aq auditQuery) filter() audit.Filter {
	f := audit.Filter{
		Schema:    aq.Schema,
		Table:     aq.Table,
		Action:    aq.Action,
		Principal: aq.Principal,
		Limit:     aq.Limit,
		Offset:    aq.Offset,
	}
	// both already passed the datetime check
	if ts, err := time.Parse(time.RFC3339, aq.From); err == nil {
		f.From = &ts
	}
	if ts, err := time.Parse(time.RFC3339, aq.To); err == nil {
		f.To = &ts
	}
	return f
}

// ListAudit returns ledger entries, newest first.
// Query: schema, table, action (UPDATE|DELETE), principal, from/to (RFC 3339),
// limit (default 50, max 200), offset (default 0).
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	aq, fields := bindAuditQuery(r.URL.Query())
	if !validStruct(w, &aq, fields) {
		return
	}

	entries, err := h.Ledger.List(r.Context(), aq.filter())
	if err != nil {
		repoError(w, r, err, "not found")
		return
	}
	writeJSON(w, entries)
}
