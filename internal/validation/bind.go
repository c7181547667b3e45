package validation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// Response codes for rejected bodies.
const (
	CodeInvalidBody      = "INVALID_BODY"
	CodeValidationFailed = "VALIDATION_FAILED"
)

// BindAndValidate binds the JSON body into out and runs Check on it.
// If either step fails it writes a 400 response and returns the error so the
// handler can short-circuit.
func BindAndValidate(c *gin.Context, out *PurchaseRequest, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid request body",
			"code":    CodeInvalidBody,
		})
		return err
	}

	if err := Check(v, *out); err != nil {
		var viol *Violation
		msg := err.Error()
		if errors.As(err, &viol) {
			msg = viol.Reason
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"message": msg,
			"code":    CodeValidationFailed,
		})
		return err
	}
	return nil
}
