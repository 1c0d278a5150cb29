package donations

import (
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/mux"
)

// Browser redirect targets the gateway sends the donor back to after a
// checkout session ends. The financial state is settled by the webhook; these
// only bounce the donor to the frontend result pages.

func frontendRedirect(w http.ResponseWriter, r *http.Request, page string) {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}
	transactionID := mux.Vars(r)["transactionId"]
	target := frontend + "/payment/" + page + "?transaction_id=" + url.QueryEscape(transactionID)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (c *Controller) SuccessRedirect(w http.ResponseWriter, r *http.Request) {
	frontendRedirect(w, r, "success")
}

func (c *Controller) FailRedirect(w http.ResponseWriter, r *http.Request) {
	frontendRedirect(w, r, "fail")
}

func (c *Controller) CancelRedirect(w http.ResponseWriter, r *http.Request) {
	frontendRedirect(w, r, "cancel")
}
