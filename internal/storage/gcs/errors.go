package gcs

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// isPreconditionFailed reports an object that already exists under a
// DoesNotExist condition.
func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
