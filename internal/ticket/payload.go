package ticket

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"cinereserve/internal/domain"
)

// payloadVersion tags the QR payload format so gate scanners can
// reject encodings they do not understand.
const payloadVersion = "CRV1"

// Payload derives the QR payload for a ticket from its fields alone.
//
// The encoding is deterministic: version, confirmation code, showtime
// id, the seat list sorted lexically, and a truncated SHA-256 checksum
// over the preceding fields. A gate verifier holding the stored ticket
// fields recomputes the payload offline and compares; no live
// inventory state is involved.
func Payload(code string, showtimeID int64, seatIDs []domain.SeatID) string {
	seats := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		seats[i] = string(id)
	}
	sort.Strings(seats)

	body := fmt.Sprintf("%s|%s|%d|%s", payloadVersion, code, showtimeID, strings.Join(seats, ","))
	sum := sha256.Sum256([]byte(body))

	return body + "|" + hex.EncodeToString(sum[:8])
}

// Verify reports whether a scanned payload matches the ticket fields
// it claims to encode.
func Verify(payload, code string, showtimeID int64, seatIDs []domain.SeatID) bool {
	expected := Payload(code, showtimeID, seatIDs)
	return subtle.ConstantTimeCompare([]byte(payload), []byte(expected)) == 1
}
