package apperr

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Respond writes err with its mapped status. Server side failures are logged
// as errors, client errors only at debug level.
func Respond(w http.ResponseWriter, err error, action string) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s: %s", action, err)
	} else {
		log.Debugf("%s: %s", action, err)
	}
	http.Error(w, PublicMessage(err), status)
}
