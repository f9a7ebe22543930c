package handler

import (
	"errors"
	"net/http"
	"reflect"

	"recantoverde/internal/apierror"
	"recantoverde/internal/split"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewFieldErrors(fields))
		return false
	}
	return true
}

// respondError maps typed service errors to HTTP status codes. Anything
// untyped is a 500; the detail stays in the log, not the response.
func respondError(c *gin.Context, err error) {
	var (
		validation  *apierror.ValidationError
		notFound    *apierror.NotFoundError
		state       *apierror.InvalidStateError
		transition  *apierror.IllegalTransitionError
		capacity    *apierror.CapacityExceededError
		openOrders  *apierror.OpenOrdersExistError
		alreadyOpen *apierror.SessionAlreadyOpenError
		noCaixa     *apierror.NoActiveCaixaError
		empty       *split.EmptySelectionError
		unbalanced  *split.UnbalancedSplitError
		assignment  *split.ItemAssignmentError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.As(err, &state),
		errors.As(err, &transition),
		errors.As(err, &capacity),
		errors.As(err, &openOrders),
		errors.As(err, &alreadyOpen),
		errors.As(err, &noCaixa):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &empty),
		errors.As(err, &unbalanced),
		errors.As(err, &assignment):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}
