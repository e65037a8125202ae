package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// scanRequest accepts the key spellings seen across terminal firmware
// revisions: userId vs user_id, timestamp vs time.
type scanRequest struct {
	UserID        string `json:"userId"`
	UserIDSnake   string `json:"user_id"`
	Timestamp     string `json:"timestamp"`
	TimeAlt       string `json:"time"`
	BiometricType string `json:"biometricType"`
}

func (r scanRequest) userID() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.UserIDSnake
}

func (r scanRequest) occurredAt(now time.Time) time.Time {
	raw := r.Timestamp
	if raw == "" {
		raw = r.TimeAlt
	}
	if raw == "" {
		return now
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t
		}
	}
	return now
}

type scanResponse struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason"`
	OpenDoor        bool   `json:"open_door"`
	DoorOpenSeconds int    `json:"door_open_seconds"`
	ServerTime      string `json:"server_time"`
}

// handleScanWebhook is the hot path: a terminal (or bridge relay) reports a
// scan and waits for the verdict.  The response is always 200 with a
// well-formed decision; malformed input degrades to a deny.
func (s *Server) handleScanWebhook(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn().Err(err).Msg("malformed scan webhook body")
		writeJSON(w, http.StatusOK, scanResponse{
			Allowed:    false,
			Reason:     "Malformed scan payload",
			ServerTime: now.UTC().Format(time.RFC3339),
		})
		return
	}

	at := req.occurredAt(now)
	dec, member := s.access.Evaluate(r.Context(), req.userID(), at)
	s.notify.Notify(r.Context(), member, req.userID(), dec, at, req.BiometricType)

	writeJSON(w, http.StatusOK, scanResponse{
		Allowed:         dec.Allowed,
		Reason:          dec.Reason,
		OpenDoor:        dec.OpenDoor,
		DoorOpenSeconds: dec.DoorOpenSeconds,
		ServerTime:      now.UTC().Format(time.RFC3339),
	})
}

// handleIClockCData ingests the terminal's native push protocol.  The body
// is plain text, one record per line; only the user PIN and the punch time
// matter here.  The terminal expects a bare "OK:<count>" back and treats
// anything else as a transport error, so this handler never returns JSON
// and never a non-200 status.
func (s *Server) handleIClockCData(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table != "" && table != "ATTLOG" && table != "OPERLOG" {
		writeIClock(w, "OK")
		return
	}

	processed := 0
	scanner := bufio.NewScanner(r.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pin, at, ok := parsePunchLine(line, time.Now())
		if !ok {
			s.logger.Warn().Str("line", line).Msg("unparseable iclock record")
			continue
		}
		dec, member := s.access.Evaluate(r.Context(), pin, at)
		s.notify.Notify(r.Context(), member, pin, dec, at, "fingerprint")
		processed++
	}

	writeIClock(w, fmt.Sprintf("OK:%d", processed))
}

// handleIClockHandshake answers the terminal's initial registration probe.
func (s *Server) handleIClockHandshake(w http.ResponseWriter, r *http.Request) {
	writeIClock(w, "OK")
}

// handleIClockGetRequest is the terminal polling for pending commands.
// Direct commands go over the TCP channel instead, so the answer is always
// empty.
func (s *Server) handleIClockGetRequest(w http.ResponseWriter, r *http.Request) {
	writeIClock(w, "OK")
}

// parsePunchLine extracts the PIN and punch time from one push record.
// Fields are tab, comma, or space separated depending on firmware; the
// time is either "YYYYMMDDHHmmss" or "YYYY-MM-DD HH:MM:SS" (which itself
// spans a space split, handled by rejoining).
func parsePunchLine(line string, now time.Time) (string, time.Time, bool) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == '\t' || r == ','
	})
	if len(fields) == 1 {
		fields = strings.Fields(line)
	}
	if len(fields) == 0 {
		return "", time.Time{}, false
	}

	pin := strings.TrimSpace(fields[0])
	if pin == "" {
		return "", time.Time{}, false
	}

	for i := 1; i < len(fields); i++ {
		raw := strings.TrimSpace(fields[i])
		if t, err := time.ParseInLocation("20060102150405", raw, now.Location()); err == nil {
			return pin, t, true
		}
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", raw, now.Location()); err == nil {
			return pin, t, true
		}
		// Date and time may land in adjacent fields after a space split.
		if i+1 < len(fields) {
			joined := raw + " " + strings.TrimSpace(fields[i+1])
			if t, err := time.ParseInLocation("2006-01-02 15:04:05", joined, now.Location()); err == nil {
				return pin, t, true
			}
		}
	}

	// No recognizable time on the line; stamp it on arrival.
	return pin, now, true
}

func writeIClock(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
