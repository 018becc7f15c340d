package handler

import (
	"errors"
	"net/http"
	"reflect"

	"blendresto/internal/apierror"
	"blendresto/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
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
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps domain errors to HTTP statuses. Unknown errors become a
// generic 400 with the message; DB misses become 404.
func respondError(c *gin.Context, err error) {
	var seleccion *service.SeleccionRequeridaError
	var pago *service.PagoInsuficienteError
	var reduccion *service.ReduccionUnidadesError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.New("Recurso no encontrado"))
	case errors.As(err, &seleccion), errors.As(err, &pago), errors.As(err, &reduccion),
		errors.Is(err, service.ErrSinPassword),
		errors.Is(err, service.ErrMontoInvalido),
		errors.Is(err, service.ErrJustificacionCorta):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCajaYaAbierta),
		errors.Is(err, service.ErrSinSesionCaja),
		errors.Is(err, service.ErrSinSesionOperativa),
		errors.Is(err, service.ErrSesionOperativaDup),
		errors.Is(err, service.ErrPedidoTerminal),
		errors.Is(err, service.ErrPedidoConCocina),
		errors.Is(err, service.ErrTransicionTicket):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

// parseID reads a uuid path param, answering 400 on garbage.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}
