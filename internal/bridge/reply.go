package bridge

import (
	"fmt"

	"github.com/cryguy/webview/internal/core"
)

// replyJS settles one pending call. %[1]d seq, %[2]t ok, %[3]s value
// literal, %[4]s page token literal, %[5]t whether value is JSON. It is a no-op on pages without the
// bootstrap, for unknown seqs and for another page load's token.
const replyJS = `(function(w){w._rpc_settle&&w._rpc_settle(%[1]d,%[2]t,%[3]s,%[4]s,%[5]t);})(` + pageGlobal + `);`

// ReplyScript builds the script resolving call seq with result. For the
// JSON convention an invalid document turns into a rejection instead.
func ReplyScript(token string, seq int64, result string, conv core.Convention) string {
	if conv == core.ConventionJSON && !core.JSON.Valid([]byte(result)) {
		return RejectScript(token, seq, ErrInvalidJSON.Error())
	}
	return fmt.Sprintf(replyJS, seq, true, jsString(result), jsString(token), conv == core.ConventionJSON)
}

// RejectScript builds the script rejecting call seq with an Error
// carrying message.
func RejectScript(token string, seq int64, message string) string {
	return fmt.Sprintf(replyJS, seq, false, jsString(message), jsString(token), false)
}

// SettleScript picks ReplyScript or RejectScript depending on err.
func SettleScript(token string, seq int64, result string, err error, conv core.Convention) string {
	if err != nil {
		return RejectScript(token, seq, err.Error())
	}
	return ReplyScript(token, seq, result, conv)
}
