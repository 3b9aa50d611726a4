package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"remont/internal/core"
	"remont/internal/ports"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest{errors.New("request body is empty")}
		}
		return badRequest{fmt.Errorf("invalid JSON body: %w", err)}
	}
	if dec.More() {
		return badRequest{errors.New("request body must contain a single JSON object")}
	}
	return nil
}

// sanitizeInput trims s and drops control characters other than tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func parseBool(s string) (*bool, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, badRequest{fmt.Errorf("invalid boolean %q", s)}
	}
	return &b, nil
}

func parsePositiveInt(s, name string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, badRequest{fmt.Errorf("invalid %s %q", name, s)}
	}
	return n, nil
}

// parseTime accepts RFC 3339 timestamps and plain dates.
func parseTime(s, name string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return nil, badRequest{fmt.Errorf("invalid %s %q", name, s)}
	}
	return &d.Time, nil
}

// splitList splits a comma separated or repeated query parameter.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseNoteQuery reads the note list parameters:
// page, pageSize, tags, from, to, hasMedia, sortBy, order.
func ParseNoteQuery(sectionID string, q url.Values) (ports.NoteQuery, error) {
	nq := ports.NoteQuery{SectionID: sectionID, Tags: splitList(q["tags"])}
	var err error
	if nq.Page, err = parsePositiveInt(q.Get("page"), "page"); err != nil {
		return nq, err
	}
	if nq.PageSize, err = parsePositiveInt(q.Get("pageSize"), "pageSize"); err != nil {
		return nq, err
	}
	if nq.From, err = parseTime(q.Get("from"), "from"); err != nil {
		return nq, err
	}
	if nq.To, err = parseTime(q.Get("to"), "to"); err != nil {
		return nq, err
	}
	if nq.HasMedia, err = parseBool(q.Get("hasMedia")); err != nil {
		return nq, err
	}

	switch s := q.Get("sortBy"); s {
	case "":
	case "createdAt", string(ports.SortByCreatedAt):
		nq.SortBy = ports.SortByCreatedAt
	case "updatedAt", string(ports.SortByUpdatedAt):
		nq.SortBy = ports.SortByUpdatedAt
	default:
		return nq, badRequest{fmt.Errorf("invalid sortBy %q", s)}
	}
	switch o := ports.SortOrder(strings.ToLower(q.Get("order"))); o {
	case "", ports.SortAsc, ports.SortDesc:
		nq.Order = o
	default:
		return nq, badRequest{fmt.Errorf("invalid order %q", o)}
	}
	return nq.Normalize(), nil
}
