package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = validator.New()

// DecodeJSON reads the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return apperr.InvalidArg("request body cannot be empty")
	}
	if err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "invalid request body", err)
	}
	return nil
}

// Validate checks v's validate tags. Failures come back as
// validator.ValidationErrors for response.FromError to format.
func Validate(v interface{}) error {
	return validate.Struct(v)
}
