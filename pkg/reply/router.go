package reply

import (
	"fmt"

	"github.com/chainnote/chainnote-go/pkg/announce"
	"github.com/chainnote/chainnote-go/pkg/config"
)

// maxDiagnosticRunes bounds every user-facing failure message.
const maxDiagnosticRunes = 160

// Router maps pipeline outcomes to user-facing text: a viewer link on
// acceptance, a bounded diagnostic on any failure. Secret material never
// reaches this component, so nothing it formats can leak one.
type Router struct {
	viewerBaseURL string
}

// NewRouter creates a router for the resolved network.
func NewRouter(params *config.NetworkParams) *Router {
	return &Router{viewerBaseURL: params.ViewerBaseURL}
}

// ViewerURL builds the human-browsable link for an announced transaction.
func (r *Router) ViewerURL(hash string) string {
	return r.viewerBaseURL + hash
}

// Acknowledge returns the success message for an accepted transaction.
func (r *Router) Acknowledge(hash string) string {
	return "Recorded on the ledger: " + r.ViewerURL(hash)
}

// Diagnose returns a bounded diagnostic for a failed pipeline stage. The
// underlying error text is truncated, not summarized.
func (r *Router) Diagnose(stage string, err error) string {
	return truncate(fmt.Sprintf("Could not record your note (%s): %v", stage, err), maxDiagnosticRunes)
}

// DiagnoseAnnounce returns a bounded diagnostic for a failed announce. A
// timeout or transport failure is reported as unknown fate, not as a refusal.
func (r *Router) DiagnoseAnnounce(res *announce.Result) string {
	var msg string
	switch res.Status {
	case announce.StatusRejected:
		msg = fmt.Sprintf("The ledger node rejected your note: %s", res.Reason)
	case announce.StatusTimeout:
		msg = "The ledger node did not answer in time; your note may or may not have been recorded."
	case announce.StatusTransportFailure:
		msg = "Could not reach the ledger node; your note was not confirmed."
	default:
		msg = "Unexpected announce outcome."
	}
	return truncate(msg, maxDiagnosticRunes)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
