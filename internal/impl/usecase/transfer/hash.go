package impl_transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	port_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/usecase/transfer"
	"github.com/gowebpki/jcs"
)

// fingerprintFields holds only the economically meaningful fields. Ids travel
// as strings so canonicalization never goes through float64.
type fingerprintFields struct {
	Amount        string `json:"amount"`
	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`
}

// HashCreateTransferInput returns the hex SHA-256 of the canonical JSON form of
// the request. Equivalent amounts such as 100, 100.0 and 1e2 hash identically.
func HashCreateTransferInput(in port_transfer.CreateTransferInput) string {
	raw, _ := json.Marshal(fingerprintFields{
		Amount:        in.Amount.String(),
		FromAccountID: strconv.FormatInt(in.FromAccountID, 10),
		ToAccountID:   strconv.FormatInt(in.ToAccountID, 10),
	})

	canon, err := jcs.Transform(raw)
	if err != nil {
		canon = raw
	}

	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}
